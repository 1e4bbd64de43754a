package interpreter

import (
	"sort"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// InterpretDirector is the pure Director transition function (spec §4.5):
// the top-level registry and supervisor. It never holds a RoomState,
// AgentState or ProjectState directly — only the catalogue entries needed
// to route creation/removal and answer status queries.
func InterpretDirector(s values.DirectorState, msg any) (values.DirectorState, []effects.Effect) {
	switch m := msg.(type) {

	case CreateRoom:
		if _, exists := s.Rooms[m.Config.ID]; exists {
			return noChange(s)
		}
		next := s
		next.Rooms = cloneRoomInfos(s.Rooms)
		next.Rooms[m.Config.ID] = values.RoomInfo{ID: m.Config.ID, Name: m.Config.Name}
		return next, []effects.Effect{{
			Kind:      effects.KindSpawnRoomActor,
			SpawnRoom: &m.Config,
		}}

	case DeleteRoom:
		if _, exists := s.Rooms[m.RoomID]; !exists {
			return noChange(s)
		}
		next := s
		next.Rooms = cloneRoomInfos(s.Rooms)
		delete(next.Rooms, m.RoomID)
		return next, []effects.Effect{{
			Kind:   effects.KindStopActor,
			Target: values.RoomAddress(m.RoomID),
		}}

	case RegisterAgent:
		if _, exists := s.Agents[m.Config.ID]; exists {
			return noChange(s)
		}
		next := s
		next.Agents = cloneAgentInfos(s.Agents)
		next.Agents[m.Config.ID] = values.AgentInfo{ID: m.Config.ID, Name: m.Config.Name}
		return next, []effects.Effect{{
			Kind:       effects.KindSpawnAgentActor,
			SpawnAgent: &m.Config,
		}}

	case UnregisterAgent:
		if _, exists := s.Agents[m.AgentID]; !exists {
			return noChange(s)
		}
		next := s
		next.Agents = cloneAgentInfos(s.Agents)
		delete(next.Agents, m.AgentID)
		return next, []effects.Effect{{
			Kind:   effects.KindStopActor,
			Target: values.AgentAddress(m.AgentID),
		}}

	case MoveAgentToRoom:
		if _, exists := s.Agents[m.AgentID]; !exists {
			return noChange(s)
		}
		return stateOnly(s), []effects.Effect{
			{
				Kind:        effects.KindSendToActor,
				Target:      values.AgentAddress(m.AgentID),
				SendMessage: JoinRoom{RoomID: m.RoomID},
			},
			{
				Kind:   effects.KindSendToActor,
				Target: values.RoomAddress(m.RoomID),
				SendMessage: AgentJoined{
					AgentID:     m.AgentID,
					EventID:     values.MessageID(string(m.AgentID) + ":join:" + string(m.RoomID)),
					TimestampMS: m.NowMS,
				},
			},
		}

	case StartNewProject:
		if _, exists := s.Projects[m.ProjectID]; exists {
			return noChange(s)
		}
		next := s
		next.Projects = cloneProjectInfos(s.Projects)
		next.Projects[m.ProjectID] = values.ProjectInfo{
			ID: m.ProjectID, Name: m.Name, RoomID: m.RoomID, Phase: values.ProjectIdle,
		}
		project := values.NewProjectState(m.ProjectID, m.Name, m.Goal, m.RoomID, m.MaxTurns)
		return next, []effects.Effect{{
			Kind:         effects.KindSpawnProjectActor,
			SpawnProject: &project,
		}}

	case StopProject:
		if _, exists := s.Projects[m.ProjectID]; !exists {
			return noChange(s)
		}
		next := s
		next.Projects = cloneProjectInfos(s.Projects)
		delete(next.Projects, m.ProjectID)
		return next, []effects.Effect{{
			Kind:   effects.KindStopActor,
			Target: values.ProjectAddress(m.ProjectID),
		}}

	case AgentsLoaded:
		next := s
		next.Agents = map[values.AgentID]values.AgentInfo{}
		for _, a := range m.Agents {
			next.Agents[a.ID] = a
		}
		return stateOnly(next)

	case RoomsLoaded:
		next := s
		next.Rooms = map[values.RoomID]values.RoomInfo{}
		for _, r := range m.Rooms {
			next.Rooms[r.ID] = r
		}
		return stateOnly(next)

	case GetStatus:
		return stateOnly(s), []effects.Effect{{
			Kind:     effects.KindSendToClient,
			ReplyTag: m.ReplyTag,
			BroadcastEvent: &effects.BroadcastEvent{
				Type: "director_status",
				Data: directorStatusSnapshot(s),
			},
		}}

	default:
		return noChange(s)
	}
}

func directorStatusSnapshot(s values.DirectorState) map[string]any {
	roomNames := make([]string, 0, len(s.Rooms))
	for id := range s.Rooms {
		roomNames = append(roomNames, string(id))
	}
	sort.Strings(roomNames)

	agentNames := make([]string, 0, len(s.Agents))
	for id := range s.Agents {
		agentNames = append(agentNames, string(id))
	}
	sort.Strings(agentNames)

	projectNames := make([]string, 0, len(s.Projects))
	for id := range s.Projects {
		projectNames = append(projectNames, string(id))
	}
	sort.Strings(projectNames)

	return map[string]any{
		"rooms":    roomNames,
		"agents":   agentNames,
		"projects": projectNames,
	}
}

func cloneRoomInfos(m map[values.RoomID]values.RoomInfo) map[values.RoomID]values.RoomInfo {
	out := make(map[values.RoomID]values.RoomInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAgentInfos(m map[values.AgentID]values.AgentInfo) map[values.AgentID]values.AgentInfo {
	out := make(map[values.AgentID]values.AgentInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneProjectInfos(m map[values.ProjectID]values.ProjectInfo) map[values.ProjectID]values.ProjectInfo {
	out := make(map[values.ProjectID]values.ProjectInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
