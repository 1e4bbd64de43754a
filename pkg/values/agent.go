package values

// AgentConfig is the persona definition loaded from YAML by the (out-of-core)
// persona loader adapter. It never changes once an AgentState is spawned;
// a persona edit spawns a fresh AgentConfig and the director re-registers it.
type AgentConfig struct {
	ID          AgentID
	Name        string
	Description string // system prompt fragment / bio
	// PersonalityTraits maps a trait name ("curiosity", "formality", ...) to
	// a value in [0,1]. Folded into the system prompt by the LLM executor.
	PersonalityTraits map[string]float64
	// ResponseTendency in [0,1] drives the room's responder-selection (spec §4.2).
	ResponseTendency float64
	Temperature      float64
	Model            string
	// ToolAllowList is nil for "all built-in tools allowed"; otherwise the
	// set of tool names this persona may invoke.
	ToolAllowList []string
}

// AgentStatus is the agent state machine's current node (spec §4.8).
type AgentStatus string

const (
	AgentIdle          AgentStatus = "idle"
	AgentThinking      AgentStatus = "thinking"
	AgentAwaitingTools AgentStatus = "awaiting_tools"
	AgentSpeaking       AgentStatus = "speaking"
	AgentOffline        AgentStatus = "offline"
)

// ConversationTurn is one entry of an agent's bounded rolling history —
// a denormalized view of what it said/heard, used to reconstruct LLM
// request context across tool-use round trips within one response cycle.
type ConversationTurn struct {
	Role       string // "system", "user", "assistant", "tool"
	Content    string
	ToolCallID string // set on tool-result turns
	ToolName   string
}

// AgentState is the runtime record for one persona, owned exclusively by
// its Agent interpreter.
type AgentState struct {
	Config AgentConfig
	Status AgentStatus

	RoomID *RoomID // nil when not currently joined to a room
	TaskID *TaskID // nil when idle w.r.t. a project task

	// History is the rolling, bounded conversation-turn window for the
	// in-flight LLM request cycle. Cleared on transition back to idle.
	History    []ConversationTurn
	HistoryCap int // spec §3 invariant (c): never exceeds this cap

	ToolCallCount int // reset to 0 on every new RespondToMessage

	LastSpokeAtMS int64
	MessageCount  int

	// ReplyTag correlates the in-flight LLM/tool call with its eventual
	// result; a new RespondToMessage supersedes it (spec §4.3 cancellation).
	ReplyTag string

	// Attempts tracks transient-error retries for the current ReplyTag.
	Attempts int
}

// DefaultHistoryCap is used when an AgentConfig does not override it.
const DefaultHistoryCap = 40

// DefaultMaxToolCalls is the ceiling from spec §4.3 / §6.
const DefaultMaxToolCalls = 50

// NewAgentState creates a freshly spawned, idle agent.
func NewAgentState(cfg AgentConfig) AgentState {
	return AgentState{
		Config:     cfg,
		Status:     AgentIdle,
		HistoryCap: DefaultHistoryCap,
	}
}
