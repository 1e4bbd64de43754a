package interpreter

import (
	"testing"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretDirector_CreateRoomSpawns(t *testing.T) {
	s := values.NewDirectorState()
	next, fx := InterpretDirector(s, CreateRoom{Config: values.RoomConfig{ID: "room-1", Name: "general"}})

	assert.Contains(t, next.Rooms, values.RoomID("room-1"))
	require.Len(t, fx, 1)
	assert.Equal(t, effects.KindSpawnRoomActor, fx[0].Kind)

	// Creating the same room again is a no-op.
	again, fx2 := InterpretDirector(next, CreateRoom{Config: values.RoomConfig{ID: "room-1", Name: "general"}})
	assert.Equal(t, next, again)
	assert.Nil(t, fx2)
}

func TestInterpretDirector_DeleteRoomStops(t *testing.T) {
	s := values.NewDirectorState()
	s.Rooms["room-1"] = values.RoomInfo{ID: "room-1", Name: "general"}

	next, fx := InterpretDirector(s, DeleteRoom{RoomID: "room-1"})
	assert.NotContains(t, next.Rooms, values.RoomID("room-1"))
	require.Len(t, fx, 1)
	assert.Equal(t, effects.KindStopActor, fx[0].Kind)
	assert.Equal(t, values.RoomAddress("room-1"), fx[0].Target)
}

func TestInterpretDirector_RegisterAndUnregisterAgent(t *testing.T) {
	s := values.NewDirectorState()

	next, fx := InterpretDirector(s, RegisterAgent{Config: values.AgentConfig{ID: "alice", Name: "alice"}})
	assert.Contains(t, next.Agents, values.AgentID("alice"))
	require.Len(t, fx, 1)
	assert.Equal(t, effects.KindSpawnAgentActor, fx[0].Kind)

	next2, fx2 := InterpretDirector(next, UnregisterAgent{AgentID: "alice"})
	assert.NotContains(t, next2.Agents, values.AgentID("alice"))
	require.Len(t, fx2, 1)
	assert.Equal(t, effects.KindStopActor, fx2[0].Kind)
}

func TestInterpretDirector_MoveAgentToRoomUnknownAgentIsNoop(t *testing.T) {
	s := values.NewDirectorState()
	next, fx := InterpretDirector(s, MoveAgentToRoom{AgentID: "ghost", RoomID: "room-1"})
	assert.Equal(t, s, next)
	assert.Nil(t, fx)
}

func TestInterpretDirector_StartAndStopProject(t *testing.T) {
	s := values.NewDirectorState()

	next, fx := InterpretDirector(s, StartNewProject{
		ProjectID: "proj-1", Name: "demo", Goal: "ship it", RoomID: "room-1", MaxTurns: 10,
	})
	assert.Contains(t, next.Projects, values.ProjectID("proj-1"))
	require.Len(t, fx, 1)
	assert.Equal(t, effects.KindSpawnProjectActor, fx[0].Kind)

	next2, fx2 := InterpretDirector(next, StopProject{ProjectID: "proj-1"})
	assert.NotContains(t, next2.Projects, values.ProjectID("proj-1"))
	require.Len(t, fx2, 1)
	assert.Equal(t, effects.KindStopActor, fx2[0].Kind)
}

func TestInterpretDirector_GetStatusRepliesWithSnapshot(t *testing.T) {
	s := values.NewDirectorState()
	s.Rooms["room-1"] = values.RoomInfo{ID: "room-1", Name: "general"}
	s.Agents["alice"] = values.AgentInfo{ID: "alice", Name: "alice"}

	next, fx := InterpretDirector(s, GetStatus{ReplyTag: "status-1"})
	assert.Equal(t, s, next)
	require.Len(t, fx, 1)
	assert.Equal(t, effects.KindSendToClient, fx[0].Kind)
	assert.Equal(t, "status-1", fx[0].ReplyTag)
	data, ok := fx[0].BroadcastEvent.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"room-1"}, data["rooms"])
}
