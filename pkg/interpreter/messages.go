package interpreter

import "github.com/codeready-toolchain/agentrooms/pkg/values"

// --- Room messages (spec §4.2) ---

type UserMessage struct {
	ID              values.MessageID
	TimestampMS     int64
	Sender          values.SenderID
	SenderName      string
	Content         string
	MentionedAgents []string // agent names, resolved to ids by the caller
	ReplyToID       *values.MessageID
	Attachments     []values.Attachment
}

type AgentResponse struct {
	AgentID     values.AgentID
	MessageID   values.MessageID
	TimestampMS int64
	Content     string
}

type AgentJoined struct {
	AgentID     values.AgentID
	EventID     values.MessageID
	TimestampMS int64
}

type AgentLeft struct {
	AgentID     values.AgentID
	EventID     values.MessageID
	TimestampMS int64
}

type AgentTyping struct {
	AgentID values.AgentID
	Typing  bool
}

type ClearMessages struct {
	EventID     values.MessageID
	TimestampMS int64
}

type ResetRoom struct {
	EventID     values.MessageID
	TimestampMS int64
}

type MessagesLoaded struct {
	Messages []values.ChatMessage
}

type RoomTick struct {
	NowMS int64
}

type RequestResponses struct {
	AgentIDs    []values.AgentID
	ContextSize int
}

// --- Agent messages (spec §4.3) ---

type RespondToMessage struct {
	RoomID      values.RoomID
	Context     []values.ChatMessage
	Topic       string
	Trigger     values.ChatMessage
	ReplyTag    string
	NowMS       int64
}

type ApiResponse struct {
	ReplyTag   string
	StopReason string // "end_turn" | "tool_use"
	Text       string
	ToolCalls  []ApiToolUse
	NowMS      int64
}

type ApiToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

type ToolResultMsg struct {
	ReplyTag string
	Results  []ToolExecResult
	NowMS    int64
}

type ToolExecResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

type ApiError struct {
	ReplyTag  string
	Transient bool
	RateLimited bool
	Message   string
	NowMS     int64
}

type JoinRoom struct {
	RoomID values.RoomID
}

type LeaveRoom struct {
	RoomID values.RoomID
}

type SetStatus struct {
	Status values.AgentStatus
}

type StartTask struct {
	TaskID values.TaskID
}

type CompleteTask struct {
	TaskID values.TaskID
}

type ResetAgent struct{}

// RetryApiCall is the scheduler's wakeup after an exponential backoff delay
// (spec §4.3 "transient error retry"); it carries the ReplyTag so a stale
// retry (superseded by a newer RespondToMessage in the meantime) is discarded.
type RetryApiCall struct {
	ReplyTag string
}

// --- Project messages (spec §4.4) ---

type StartProject struct {
	NowMS int64
}

type AddTask struct {
	Task  values.Task
	NowMS int64
}

type AssignTask struct {
	TaskID     values.TaskID
	AssigneeID values.AgentID
	NowMS      int64
}

type TaskStarted struct {
	TaskID values.TaskID
	NowMS  int64
}

type TaskCompleted struct {
	TaskID    values.TaskID
	Artifacts []string
	NowMS     int64
}

type TaskFailed struct {
	TaskID       values.TaskID
	ErrorMessage string
	NowMS        int64
}

type SetPhase struct {
	Phase values.ProjectPhase
	NowMS int64
}

type ProjectTick struct {
	IdleMembers []values.AgentID
	NowMS       int64
}

type AgentTurnComplete struct {
	AgentID values.AgentID
}

type CancelProject struct {
	NowMS int64
}

type PlanningComplete struct {
	Tasks []values.Task
	NowMS int64
}

// --- Director messages (spec §4.5) ---

type CreateRoom struct {
	Config values.RoomConfig
}

type DeleteRoom struct {
	RoomID values.RoomID
}

type RegisterAgent struct {
	Config values.AgentConfig
}

type UnregisterAgent struct {
	AgentID values.AgentID
}

type MoveAgentToRoom struct {
	AgentID values.AgentID
	RoomID  values.RoomID
	NowMS   int64
}

type StartNewProject struct {
	ProjectID values.ProjectID
	Name      string
	Goal      string
	RoomID    values.RoomID
	MaxTurns  int
	NowMS     int64
}

type StopProject struct {
	ProjectID values.ProjectID
}

type AgentsLoaded struct {
	Agents []values.AgentInfo
}

type RoomsLoaded struct {
	Rooms []values.RoomInfo
}

type GetStatus struct {
	ReplyTag string
}
