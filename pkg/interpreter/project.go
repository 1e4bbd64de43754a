package interpreter

import (
	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// InterpretProject is the pure Project transition function (spec §4.4).
func InterpretProject(s values.ProjectState, msg any) (values.ProjectState, []effects.Effect) {
	switch m := msg.(type) {

	case StartProject:
		if s.Phase != values.ProjectIdle {
			return noChange(s)
		}
		s.Phase = values.ProjectPlanning
		return s, []effects.Effect{broadcastPhase(s, m.NowMS)}

	case PlanningComplete:
		if s.Phase != values.ProjectPlanning {
			return noChange(s)
		}
		s.Tasks = append(append([]values.Task{}, s.Tasks...), m.Tasks...)
		s.Phase = values.ProjectBuilding
		return s, []effects.Effect{broadcastPhase(s, m.NowMS)}

	case AddTask:
		s.Tasks = append(append([]values.Task{}, s.Tasks...), m.Task)
		return s, []effects.Effect{dbUpdateTask(s.ID, m.Task)}

	case AssignTask:
		return onAssignTask(s, m)

	case TaskStarted:
		return onTaskStarted(s, m)

	case TaskCompleted:
		return onTaskCompleted(s, m)

	case TaskFailed:
		return onTaskFailed(s, m)

	case SetPhase:
		s.Phase = m.Phase
		return s, []effects.Effect{broadcastPhase(s, m.NowMS)}

	case ProjectTick:
		return onProjectTick(s, m)

	case AgentTurnComplete:
		next := s
		next.ActiveBuilders = cloneAgentSetWithout(s.ActiveBuilders, m.AgentID)
		return stateOnly(next)

	case CancelProject:
		return onCancelProject(s, m)

	default:
		return noChange(s)
	}
}

func onAssignTask(s values.ProjectState, m AssignTask) (values.ProjectState, []effects.Effect) {
	idx := findTask(s.Tasks, m.TaskID)
	if idx < 0 || s.Tasks[idx].Status != values.TaskUnassigned {
		return noChange(s)
	}
	next := s
	next.Tasks = cloneTasks(s.Tasks)
	next.Tasks[idx].Status = values.TaskAssigned
	next.Tasks[idx].AssigneeID = &m.AssigneeID
	next.Tasks[idx].AssignedAtMS = m.NowMS
	next.ActiveBuilders = cloneAgentSetWith(s.ActiveBuilders, m.AssigneeID)

	task := next.Tasks[idx]
	return next, []effects.Effect{
		dbUpdateTask(next.ID, task),
		{
			Kind:        effects.KindSendToActor,
			Target:      values.AgentAddress(m.AssigneeID),
			SendMessage: StartTask{TaskID: m.TaskID},
		},
	}
}

func onTaskStarted(s values.ProjectState, m TaskStarted) (values.ProjectState, []effects.Effect) {
	idx := findTask(s.Tasks, m.TaskID)
	if idx < 0 {
		return noChange(s)
	}
	next := s
	next.Tasks = cloneTasks(s.Tasks)
	next.Tasks[idx].Status = values.TaskInProgress
	task := next.Tasks[idx]
	return next, []effects.Effect{dbUpdateTask(next.ID, task)}
}

func onTaskCompleted(s values.ProjectState, m TaskCompleted) (values.ProjectState, []effects.Effect) {
	idx := findTask(s.Tasks, m.TaskID)
	if idx < 0 {
		return noChange(s)
	}
	next := s
	next.Tasks = cloneTasks(s.Tasks)
	next.Tasks[idx].Status = values.TaskDone
	next.Tasks[idx].Artifacts = m.Artifacts
	next.Tasks[idx].CompletedAtMS = m.NowMS

	var fx []effects.Effect
	task := next.Tasks[idx]
	fx = append(fx, dbUpdateTask(next.ID, task))

	if aid := task.AssigneeID; aid != nil {
		next.ActiveBuilders = cloneAgentSetWithout(s.ActiveBuilders, *aid)
		next.CompletedBuilders = cloneAgentSetWith(s.CompletedBuilders, *aid)
		fx = append(fx, effects.Effect{
			Kind:        effects.KindSendToActor,
			Target:      values.AgentAddress(*aid),
			SendMessage: CompleteTask{TaskID: m.TaskID},
		})
	}
	return next, fx
}

func onTaskFailed(s values.ProjectState, m TaskFailed) (values.ProjectState, []effects.Effect) {
	idx := findTask(s.Tasks, m.TaskID)
	if idx < 0 {
		return noChange(s)
	}
	next := s
	next.Tasks = cloneTasks(s.Tasks)
	next.Tasks[idx].Status = values.TaskFailed
	next.Tasks[idx].ErrorMessage = m.ErrorMessage
	next.Tasks[idx].CompletedAtMS = m.NowMS
	if aid := next.Tasks[idx].AssigneeID; aid != nil {
		next.ActiveBuilders = cloneAgentSetWithout(s.ActiveBuilders, *aid)
	}
	task := next.Tasks[idx]
	return next, []effects.Effect{dbUpdateTask(next.ID, task)}
}

// onProjectTick assigns freshly idle agents to unassigned tasks (priority
// then creation order), advances building -> reviewing once every task is
// terminal, settles reviewing -> done on the following tick, and forces an
// immediate done once the turn budget is exhausted, carrying a "budget
// exhausted" marker (spec §4.4: "if turnCount >= maxTurns -> done with a
// 'budget exhausted' marker").
func onProjectTick(s values.ProjectState, m ProjectTick) (values.ProjectState, []effects.Effect) {
	next := s
	next.TurnCount++

	if next.MaxTurns > 0 && next.TurnCount >= next.MaxTurns && !next.BudgetExhausted {
		next.BudgetExhausted = true
		if next.Phase != values.ProjectDone {
			next.Phase = values.ProjectDone
			return next, []effects.Effect{broadcastBudgetExhausted(next, m.NowMS)}
		}
	}

	var fx []effects.Effect
	if next.Phase == values.ProjectBuilding && !next.BudgetExhausted {
		unassigned := next.UnassignedTasks()
		i := 0
		next.Tasks = cloneTasks(next.Tasks)
		for _, agentID := range m.IdleMembers {
			if i >= len(unassigned) {
				break
			}
			if _, busy := next.ActiveBuilders[agentID]; busy {
				continue
			}
			t := unassigned[i]
			idx := findTask(next.Tasks, t.ID)
			if idx < 0 || next.Tasks[idx].Status != values.TaskUnassigned {
				continue
			}
			next.Tasks[idx].Status = values.TaskAssigned
			next.Tasks[idx].AssigneeID = &agentID
			next.Tasks[idx].AssignedAtMS = m.NowMS
			next.ActiveBuilders = cloneAgentSetWith(next.ActiveBuilders, agentID)
			task := next.Tasks[idx]
			fx = append(fx,
				dbUpdateTask(next.ID, task),
				effects.Effect{
					Kind:        effects.KindSendToActor,
					Target:      values.AgentAddress(agentID),
					SendMessage: StartTask{TaskID: t.ID},
				},
			)
			i++
		}
	}

	if next.Phase == values.ProjectBuilding && next.AllTasksDone() {
		next.Phase = values.ProjectReviewing
		fx = append(fx, broadcastPhase(next, m.NowMS))
	} else if next.Phase == values.ProjectReviewing {
		next.Phase = values.ProjectDone
		fx = append(fx, broadcastPhase(next, m.NowMS))
	}

	if len(fx) == 0 {
		return noChange(next)
	}
	return next, fx
}

func onCancelProject(s values.ProjectState, m CancelProject) (values.ProjectState, []effects.Effect) {
	next := s
	next.Tasks = cloneTasks(s.Tasks)
	var fx []effects.Effect
	for i := range next.Tasks {
		if next.Tasks[i].Status == values.TaskDone || next.Tasks[i].Status == values.TaskFailed {
			continue
		}
		next.Tasks[i].Status = values.TaskFailed
		next.Tasks[i].ErrorMessage = "project cancelled"
		next.Tasks[i].CompletedAtMS = m.NowMS
		task := next.Tasks[i]
		fx = append(fx, dbUpdateTask(next.ID, task))
	}
	next.Phase = values.ProjectDone
	next.ActiveBuilders = map[values.AgentID]struct{}{}
	fx = append(fx, broadcastPhase(next, m.NowMS))
	return next, fx
}

// dbUpdateTask builds the persistence effect for one task upsert. task is
// copied into a fresh variable by the caller before this is called, so
// taking its address here is always safe (no loop-variable aliasing).
func dbUpdateTask(projectID values.ProjectID, task values.Task) effects.Effect {
	t := task
	return effects.Effect{Kind: effects.KindDBUpdateTask, ProjectID: projectID, Task: &t}
}

func broadcastPhase(s values.ProjectState, nowMS int64) effects.Effect {
	return effects.Effect{
		Kind:   effects.KindBroadcastToRoom,
		RoomID: s.RoomID,
		BroadcastEvent: &effects.BroadcastEvent{
			Type:   "project_phase_changed",
			RoomID: s.RoomID,
			Data:   map[string]any{"projectId": string(s.ID), "phase": string(s.Phase)},
		},
	}
}

// broadcastBudgetExhausted is broadcastPhase plus the "budget exhausted"
// marker spec §4.4 requires on the forced done transition, so clients can
// distinguish it from a normal allTasksDone completion.
func broadcastBudgetExhausted(s values.ProjectState, nowMS int64) effects.Effect {
	return effects.Effect{
		Kind:   effects.KindBroadcastToRoom,
		RoomID: s.RoomID,
		BroadcastEvent: &effects.BroadcastEvent{
			Type:   "project_phase_changed",
			RoomID: s.RoomID,
			Data: map[string]any{
				"projectId": string(s.ID),
				"phase":     string(s.Phase),
				"reason":    "budget_exhausted",
			},
		},
	}
}

func findTask(tasks []values.Task, id values.TaskID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []values.Task) []values.Task {
	out := make([]values.Task, len(tasks))
	copy(out, tasks)
	return out
}

func cloneAgentSet(m map[values.AgentID]struct{}) map[values.AgentID]struct{} {
	out := make(map[values.AgentID]struct{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAgentSetWith(m map[values.AgentID]struct{}, id values.AgentID) map[values.AgentID]struct{} {
	out := cloneAgentSet(m)
	out[id] = struct{}{}
	return out
}

func cloneAgentSetWithout(m map[values.AgentID]struct{}, id values.AgentID) map[values.AgentID]struct{} {
	out := cloneAgentSet(m)
	delete(out, id)
	return out
}
