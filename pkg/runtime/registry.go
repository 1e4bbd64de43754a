package runtime

import (
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// registry holds every live actor, keyed both generically (for Send/dispatch
// routing) and by concrete kind (for the tick loop, which needs typed
// snapshots to compute idle rosters and context windows).
type registry struct {
	mu sync.RWMutex

	all      map[values.ActorAddress]actor
	rooms    map[values.RoomID]*mailbox[values.RoomState]
	agents   map[values.AgentID]*mailbox[values.AgentState]
	projects map[values.ProjectID]*mailbox[values.ProjectState]
	director *mailbox[values.DirectorState]
}

func newRegistry() *registry {
	return &registry{
		all:      map[values.ActorAddress]actor{},
		rooms:    map[values.RoomID]*mailbox[values.RoomState]{},
		agents:   map[values.AgentID]*mailbox[values.AgentState]{},
		projects: map[values.ProjectID]*mailbox[values.ProjectState]{},
	}
}

func (rt *Runtime) spawnRoom(cfg values.RoomConfig) {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()

	addr := values.RoomAddress(cfg.ID)
	if _, exists := rt.reg.rooms[cfg.ID]; exists {
		return
	}
	mb := newMailbox(addr, values.NewRoomState(cfg), func(rt *Runtime, s values.RoomState, msg any) (values.RoomState, []effects.Effect) {
		deps := rt.roomDepsFor(s.Config.ID)
		return interpreter.InterpretRoom(deps, s, msg)
	})
	rt.reg.rooms[cfg.ID] = mb
	rt.reg.all[addr] = mb
	slog.Info("room spawned", "room_id", cfg.ID)
}

func (rt *Runtime) spawnAgent(cfg values.AgentConfig) {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()

	addr := values.AgentAddress(cfg.ID)
	if _, exists := rt.reg.agents[cfg.ID]; exists {
		return
	}
	mb := newMailbox(addr, values.NewAgentState(cfg), func(rt *Runtime, s values.AgentState, msg any) (values.AgentState, []effects.Effect) {
		return interpreter.InterpretAgent(rt.agentDeps, s, msg)
	})
	rt.reg.agents[cfg.ID] = mb
	rt.reg.all[addr] = mb
	rt.setRosterEntry(cfg)
	slog.Info("agent spawned", "agent_id", cfg.ID, "name", cfg.Name)
}

func (rt *Runtime) spawnProject(initial values.ProjectState) {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()

	addr := values.ProjectAddress(initial.ID)
	if _, exists := rt.reg.projects[initial.ID]; exists {
		return
	}
	mb := newMailbox(addr, initial, func(rt *Runtime, s values.ProjectState, msg any) (values.ProjectState, []effects.Effect) {
		return interpreter.InterpretProject(s, msg)
	})
	rt.reg.projects[initial.ID] = mb
	rt.reg.all[addr] = mb
	slog.Info("project spawned", "project_id", initial.ID, "room_id", initial.RoomID)
}

func (rt *Runtime) spawnDirector() {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()

	mb := newMailbox(values.DirectorAddress, values.NewDirectorState(), func(rt *Runtime, s values.DirectorState, msg any) (values.DirectorState, []effects.Effect) {
		return interpreter.InterpretDirector(s, msg)
	})
	rt.reg.director = mb
	rt.reg.all[values.DirectorAddress] = mb
}

func (rt *Runtime) stopActor(addr values.ActorAddress) {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()

	delete(rt.reg.all, addr)
	switch addr.Kind {
	case values.KindRoom:
		delete(rt.reg.rooms, values.RoomID(addr.ID))
	case values.KindAgent:
		delete(rt.reg.agents, values.AgentID(addr.ID))
		rt.clearRosterEntry(values.AgentID(addr.ID))
	case values.KindProject:
		delete(rt.reg.projects, values.ProjectID(addr.ID))
	}
	slog.Info("actor stopped", "address", addr.String())
}

func (rt *Runtime) lookup(addr values.ActorAddress) actor {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()
	return rt.reg.all[addr]
}

// roomDepsFor builds the current RoomDeps for a room, snapshotting the live
// persona roster so responder selection sees up-to-date response tendencies
// (spec §4.2). Tunables come from the runtime's static config.
func (rt *Runtime) roomDepsFor(roomID values.RoomID) interpreter.RoomDeps {
	rt.rosterMu.RLock()
	roster := make(map[values.AgentID]interpreter.RoomMember, len(rt.roster))
	for id, m := range rt.roster {
		roster[id] = m
	}
	rt.rosterMu.RUnlock()

	deps := rt.roomDeps
	deps.Roster = roster
	return deps
}

func (rt *Runtime) setRosterEntry(cfg values.AgentConfig) {
	rt.rosterMu.Lock()
	defer rt.rosterMu.Unlock()
	rt.roster[cfg.ID] = interpreter.RoomMember{ID: cfg.ID, Name: cfg.Name, ResponseTendency: cfg.ResponseTendency}
}

func (rt *Runtime) clearRosterEntry(id values.AgentID) {
	rt.rosterMu.Lock()
	defer rt.rosterMu.Unlock()
	delete(rt.roster, id)
}

// idleAgentsInRoom lists agents currently idle and joined to roomID, used to
// build ProjectTick.IdleMembers.
func (rt *Runtime) idleAgentsInRoom(roomID values.RoomID) []values.AgentID {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()

	var out []values.AgentID
	for id, mb := range rt.reg.agents {
		st := mb.snapshot()
		if st.Status != values.AgentIdle {
			continue
		}
		if st.RoomID == nil || *st.RoomID != roomID {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (rt *Runtime) allRoomAddresses() []values.ActorAddress {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()
	out := make([]values.ActorAddress, 0, len(rt.reg.rooms))
	for id := range rt.reg.rooms {
		out = append(out, values.RoomAddress(id))
	}
	return out
}

func (rt *Runtime) allProjects() []values.ProjectState {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()
	out := make([]values.ProjectState, 0, len(rt.reg.projects))
	for _, mb := range rt.reg.projects {
		out = append(out, mb.snapshot())
	}
	return out
}
