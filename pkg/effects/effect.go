// Package effects defines the tagged-union descriptors interpreters emit.
// An Effect describes a side effect; it never performs one. The runtime's
// dispatcher (pkg/runtime) categorises and routes each Effect to the
// matching executor (pkg/executor/...).
package effects

import "github.com/codeready-toolchain/agentrooms/pkg/values"

// Category is the dispatcher's top-level routing key (spec §4.6).
type Category string

const (
	CategoryPersistence  Category = "persistence"
	CategoryLLM          Category = "llm"
	CategoryTool         Category = "tool"
	CategoryBroadcast    Category = "broadcast"
	CategoryActorControl Category = "actor_control"
)

// Kind discriminates the concrete Effect variant.
type Kind string

const (
	// Persistence
	KindDBPersistMessage Kind = "DB_PERSIST_MESSAGE"
	KindDBDeleteRoomMessages Kind = "DB_DELETE_ROOM_MESSAGES"
	KindDBUpdateTask     Kind = "DB_UPDATE_TASK"
	KindDBUpsertAgent    Kind = "DB_UPSERT_AGENT"
	KindDBUpsertRoom     Kind = "DB_UPSERT_ROOM"
	KindDBLoadMessages   Kind = "DB_LOAD_MESSAGES"
	KindDBWriteArtifact  Kind = "DB_WRITE_ARTIFACT"
	KindDBReadArtifact   Kind = "DB_READ_ARTIFACT"
	KindDBDeleteArtifact Kind = "DB_DELETE_ARTIFACT"
	KindDBRenameArtifact Kind = "DB_RENAME_ARTIFACT"
	KindDBAppendEvent    Kind = "DB_APPEND_EVENT"

	// LLM
	KindCallAnthropic  Kind = "CALL_ANTHROPIC"
	KindCancelAPICall  Kind = "CANCEL_API_CALL"

	// Tool
	KindExecuteTool        Kind = "EXECUTE_TOOL"
	KindExecuteToolsBatch  Kind = "EXECUTE_TOOLS_BATCH"
	KindCancelToolExecution Kind = "CANCEL_TOOL_EXECUTION"

	// Broadcast
	KindBroadcastToRoom Kind = "BROADCAST_TO_ROOM"
	KindBroadcastToAll  Kind = "BROADCAST_TO_ALL"
	KindSendToClient    Kind = "SEND_TO_CLIENT"

	// Actor control
	KindSendToActor    Kind = "SEND_TO_ACTOR"
	KindScheduleDelay     Kind = "SCHEDULE_DELAY"
	KindScheduleRecurring Kind = "SCHEDULE_RECURRING"
	KindCancelScheduled   Kind = "CANCEL_SCHEDULED"
	KindSpawnRoomActor    Kind = "SPAWN_ROOM_ACTOR"
	KindSpawnAgentActor   Kind = "SPAWN_AGENT_ACTOR"
	KindSpawnProjectActor Kind = "SPAWN_PROJECT_ACTOR"
	KindStopActor         Kind = "STOP_ACTOR"
)

// categoryOf is the fixed Kind -> Category routing table the dispatcher uses.
var categoryOf = map[Kind]Category{
	KindDBPersistMessage:     CategoryPersistence,
	KindDBDeleteRoomMessages: CategoryPersistence,
	KindDBUpdateTask:         CategoryPersistence,
	KindDBUpsertAgent:        CategoryPersistence,
	KindDBUpsertRoom:         CategoryPersistence,
	KindDBLoadMessages:       CategoryPersistence,
	KindDBWriteArtifact:      CategoryPersistence,
	KindDBReadArtifact:       CategoryPersistence,
	KindDBDeleteArtifact:     CategoryPersistence,
	KindDBRenameArtifact:     CategoryPersistence,
	KindDBAppendEvent:        CategoryPersistence,

	KindCallAnthropic: CategoryLLM,
	KindCancelAPICall: CategoryLLM,

	KindExecuteTool:         CategoryTool,
	KindExecuteToolsBatch:   CategoryTool,
	KindCancelToolExecution: CategoryTool,

	KindBroadcastToRoom: CategoryBroadcast,
	KindBroadcastToAll:  CategoryBroadcast,
	KindSendToClient:    CategoryBroadcast,

	KindSendToActor:       CategoryActorControl,
	KindScheduleDelay:     CategoryActorControl,
	KindScheduleRecurring: CategoryActorControl,
	KindCancelScheduled:   CategoryActorControl,
	KindSpawnRoomActor:    CategoryActorControl,
	KindSpawnAgentActor:   CategoryActorControl,
	KindSpawnProjectActor: CategoryActorControl,
	KindStopActor:         CategoryActorControl,
}

// CategoryOf returns the routing category for k. Unknown kinds (a bug in an
// interpreter) report the zero Category; the dispatcher logs and drops them
// rather than panicking (spec §7 policy).
func CategoryOf(k Kind) (Category, bool) {
	c, ok := categoryOf[k]
	return c, ok
}

// Effect is a plain record: a Kind discriminator plus a payload. Only the
// field matching Kind is meaningful; this mirrors spec §9 "Effects as data"
// (a tagged union, not a visitor hierarchy).
type Effect struct {
	Kind Kind

	// Persistence payloads
	Message        *values.ChatMessage
	RoomID         values.RoomID
	ProjectID      values.ProjectID
	Task           *values.Task
	AgentSnapshot  *values.AgentConfig
	RoomSnapshot   *values.RoomConfig
	ArtifactRef    *ArtifactRef
	EventLog       *EventLogEntry

	// LLM payload
	LLMRequest *LLMRequest

	// Tool payloads
	ToolCalls []ToolCall

	// Broadcast payload
	BroadcastEvent *BroadcastEvent

	// Actor-control payloads
	Target      values.ActorAddress
	SendMessage any // concrete interpreter message type, routed by the runtime
	Schedule    *ScheduleSpec
	ScheduleID  string
	SpawnRoom   *values.RoomConfig
	SpawnAgent  *values.AgentConfig
	SpawnProject *values.ProjectState

	// ReplyTag correlates an executor's eventual reply back to the actor
	// and call that produced this effect (spec GLOSSARY "Reply tag").
	ReplyTag string
}

// ArtifactRef identifies one (roomId, agentId, path) artifact-store entry.
// AgentID "_shared_" denotes the room-wide shared store (spec §4.7 "memory").
type ArtifactRef struct {
	RoomID  values.RoomID
	AgentID string
	Path    string
	Content string // set for write/rename-target content
	NewPath string // set for rename
}

// EventLogEntry is an audit record appended to the event_log table,
// independent of ChatMessage persistence — every dispatched effect may be
// logged this way for reconciliation (spec §4.2 "Failure semantics").
type EventLogEntry struct {
	SessionID string
	EventType string
	EventData map[string]any
}

// LLMRequest is the abstracted request shape from spec §6.
type LLMRequest struct {
	AgentID     values.AgentID
	Model       string
	System      string
	Messages    []values.ConversationTurn
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// ToolDefinition describes a tool available to the LLM (spec §6).
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is one LLM-requested tool invocation (spec §4.3 tool_use block).
type ToolCall struct {
	ID        string
	Name      string
	Input     map[string]any
	RoomID    values.RoomID
	AgentID   values.AgentID
}

// BroadcastEvent is the WebSocket envelope payload from spec §6.
type BroadcastEvent struct {
	Type   string
	RoomID values.RoomID
	Data   any
}

// ScheduleSpec describes a delayed or recurring scheduler entry (spec §4.6).
type ScheduleSpec struct {
	ID         string
	Target     values.ActorAddress
	Message    any
	DelayMS    int64
	IntervalMS int64 // 0 = one-shot
}
