package interpreter

import (
	"testing"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProjectState() values.ProjectState {
	return values.NewProjectState("proj-1", "demo", "ship a widget", "room-1", 0)
}

func TestInterpretProject_StartProject(t *testing.T) {
	s := testProjectState()
	next, fx := InterpretProject(s, StartProject{NowMS: 1000})
	assert.Equal(t, values.ProjectPlanning, next.Phase)
	require.Len(t, fx, 1)
	assert.Equal(t, effects.KindBroadcastToRoom, fx[0].Kind)
}

func TestInterpretProject_PlanningCompleteAddsTasksAndBuilds(t *testing.T) {
	s := testProjectState()
	s.Phase = values.ProjectPlanning

	next, _ := InterpretProject(s, PlanningComplete{
		NowMS: 2000,
		Tasks: []values.Task{
			{ID: "t1", Title: "write docs", Priority: 1, Status: values.TaskUnassigned},
			{ID: "t2", Title: "write code", Priority: 0, Status: values.TaskUnassigned},
		},
	})

	assert.Equal(t, values.ProjectBuilding, next.Phase)
	require.Len(t, next.Tasks, 2)

	unassigned := next.UnassignedTasks()
	require.Len(t, unassigned, 2)
	assert.Equal(t, values.TaskID("t2"), unassigned[0].ID) // priority 0 before priority 1
}

func TestInterpretProject_TickAssignsIdleAgentsInPriorityOrder(t *testing.T) {
	s := testProjectState()
	s.Phase = values.ProjectBuilding
	s.Tasks = []values.Task{
		{ID: "t1", Priority: 5, Status: values.TaskUnassigned},
		{ID: "t2", Priority: 1, Status: values.TaskUnassigned},
	}

	next, fx := InterpretProject(s, ProjectTick{IdleMembers: []values.AgentID{"alice"}, NowMS: 1000})

	idx := findTask(next.Tasks, "t2")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, values.TaskAssigned, next.Tasks[idx].Status)
	require.NotNil(t, next.Tasks[idx].AssigneeID)
	assert.Equal(t, values.AgentID("alice"), *next.Tasks[idx].AssigneeID)

	idxOther := findTask(next.Tasks, "t1")
	assert.Equal(t, values.TaskUnassigned, next.Tasks[idxOther].Status)

	var sawStartTask bool
	for _, e := range fx {
		if e.Kind == effects.KindSendToActor {
			if _, ok := e.SendMessage.(StartTask); ok {
				sawStartTask = true
			}
		}
	}
	assert.True(t, sawStartTask)
}

func TestInterpretProject_TaskCompletedFreesBuilder(t *testing.T) {
	s := testProjectState()
	s.Phase = values.ProjectBuilding
	agentID := values.AgentID("alice")
	s.Tasks = []values.Task{{ID: "t1", Status: values.TaskInProgress, AssigneeID: &agentID}}
	s.ActiveBuilders = map[values.AgentID]struct{}{"alice": {}}

	next, fx := InterpretProject(s, TaskCompleted{TaskID: "t1", Artifacts: []string{"out.txt"}, NowMS: 3000})

	idx := findTask(next.Tasks, "t1")
	assert.Equal(t, values.TaskDone, next.Tasks[idx].Status)
	assert.NotZero(t, next.Tasks[idx].CompletedAtMS)
	assert.NotContains(t, next.ActiveBuilders, values.AgentID("alice"))
	assert.Contains(t, next.CompletedBuilders, values.AgentID("alice"))
	assert.True(t, next.AllTasksDone())

	var sawCompleteTask bool
	for _, e := range fx {
		if e.Kind == effects.KindSendToActor {
			if _, ok := e.SendMessage.(CompleteTask); ok {
				sawCompleteTask = true
			}
		}
	}
	assert.True(t, sawCompleteTask)
}

func TestInterpretProject_TickAdvancesToReviewingThenDone(t *testing.T) {
	s := testProjectState()
	s.Phase = values.ProjectBuilding
	s.Tasks = []values.Task{{ID: "t1", Status: values.TaskDone, CompletedAtMS: 1}}

	reviewing, fx := InterpretProject(s, ProjectTick{NowMS: 1000})
	assert.Equal(t, values.ProjectReviewing, reviewing.Phase)
	require.NotEmpty(t, fx)

	done, fx2 := InterpretProject(reviewing, ProjectTick{NowMS: 2000})
	assert.Equal(t, values.ProjectDone, done.Phase)
	require.NotEmpty(t, fx2)
}

func TestInterpretProject_TurnBudgetExhaustedForcesDone(t *testing.T) {
	s := testProjectState()
	s.Phase = values.ProjectBuilding
	s.MaxTurns = 2
	s.Tasks = []values.Task{{ID: "t1", Status: values.TaskInProgress}}

	next, _ := InterpretProject(s, ProjectTick{NowMS: 1000})
	assert.Equal(t, 1, next.TurnCount)
	assert.False(t, next.BudgetExhausted)

	final, fx := InterpretProject(next, ProjectTick{NowMS: 2000})
	assert.True(t, final.BudgetExhausted)
	assert.Equal(t, values.ProjectDone, final.Phase)
	require.Len(t, fx, 1)
	assert.Equal(t, effects.KindBroadcastToRoom, fx[0].Kind)
	data, ok := fx[0].BroadcastEvent.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "budget_exhausted", data["reason"])
}

func TestInterpretProject_CancelProjectFailsOpenTasks(t *testing.T) {
	s := testProjectState()
	s.Phase = values.ProjectBuilding
	s.Tasks = []values.Task{
		{ID: "t1", Status: values.TaskInProgress},
		{ID: "t2", Status: values.TaskDone},
	}

	next, fx := InterpretProject(s, CancelProject{NowMS: 9000})
	assert.Equal(t, values.ProjectDone, next.Phase)
	idx1 := findTask(next.Tasks, "t1")
	assert.Equal(t, values.TaskFailed, next.Tasks[idx1].Status)
	idx2 := findTask(next.Tasks, "t2")
	assert.Equal(t, values.TaskDone, next.Tasks[idx2].Status) // untouched
	require.NotEmpty(t, fx)
}
