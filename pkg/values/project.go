package values

// TaskStatus is the task state machine's current node (spec §4.8).
type TaskStatus string

const (
	TaskUnassigned TaskStatus = "unassigned"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskFailed     TaskStatus = "failed"
)

// Task is one unit of work in a collaborative project plan.
type Task struct {
	ID          TaskID
	Title       string
	Description string
	Priority    int // lower value = higher priority, per spec §4.4 ordering
	Status      TaskStatus
	AssigneeID  *AgentID
	Artifacts   []string // file paths; invariant (d): non-nil when Status==done

	CreatedAtMS   int64
	AssignedAtMS  int64
	CompletedAtMS int64 // invariant (d): non-zero when Status==done
	ErrorMessage  string
}

// ProjectPhase is the project state machine's current node (spec §4.4/§4.8).
type ProjectPhase string

const (
	ProjectIdle      ProjectPhase = "idle"
	ProjectPlanning  ProjectPhase = "planning"
	ProjectBuilding  ProjectPhase = "building"
	ProjectReviewing ProjectPhase = "reviewing"
	ProjectDone      ProjectPhase = "done"
)

// ProjectState is owned exclusively by its Project interpreter.
type ProjectState struct {
	ID     ProjectID
	Name   string
	Goal   string
	RoomID RoomID
	Phase  ProjectPhase

	Tasks []Task

	ActiveBuilders    map[AgentID]struct{}
	CompletedBuilders map[AgentID]struct{}

	TurnCount int
	MaxTurns  int

	BudgetExhausted bool
}

// NewProjectState creates a freshly created, idle project.
func NewProjectState(id ProjectID, name, goal string, roomID RoomID, maxTurns int) ProjectState {
	return ProjectState{
		ID:                id,
		Name:              name,
		Goal:              goal,
		RoomID:            roomID,
		Phase:             ProjectIdle,
		ActiveBuilders:    map[AgentID]struct{}{},
		CompletedBuilders: map[AgentID]struct{}{},
		MaxTurns:          maxTurns,
	}
}

// AllTasksDone reports the invariant precondition from spec §4.4/§8:
// allTasksDone(state).
func (p ProjectState) AllTasksDone() bool {
	if len(p.Tasks) == 0 {
		return false
	}
	for _, t := range p.Tasks {
		if t.Status != TaskDone && t.Status != TaskFailed {
			return false
		}
	}
	return true
}

// UnassignedTasks returns unassigned tasks ordered (priority asc, creation
// order asc) per spec §4.4 "Task assignment ordering".
func (p ProjectState) UnassignedTasks() []Task {
	var out []Task
	for _, t := range p.Tasks {
		if t.Status == TaskUnassigned {
			out = append(out, t)
		}
	}
	// Stable insertion order from Tasks already reflects creation order;
	// a stable sort by priority preserves it as the tie-break.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1].Priority > out[j].Priority {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}
