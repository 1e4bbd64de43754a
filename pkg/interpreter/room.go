package interpreter

import (
	"hash/fnv"
	"sort"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// RoomMember is the per-agent data the Room interpreter needs to run
// responder selection; it has no access to AgentState (ownership stays
// with the Agent actor, spec §4.6 "Ownership").
type RoomMember struct {
	ID               values.AgentID
	Name             string
	ResponseTendency float64
}

// RoomDeps carries the inputs a Room transition needs beyond its own state
// and incoming message: the member roster (for responder selection) and
// tunables. The runtime supplies these; they are not randomness or I/O,
// just read-only configuration and roster data threaded through.
type RoomDeps struct {
	Roster             map[values.AgentID]RoomMember
	ResponseThreshold  float64
	FanOutCap          int
	ContextWindowSize  int
	ResponseTimeoutMS  int64
}

func DefaultRoomDeps(roster map[values.AgentID]RoomMember) RoomDeps {
	return RoomDeps{
		Roster:            roster,
		ResponseThreshold: values.DefaultResponseThreshold,
		FanOutCap:         values.DefaultFanOutCap,
		ContextWindowSize: values.DefaultContextWindowSize,
		ResponseTimeoutMS: values.DefaultResponseTimeoutMS,
	}
}

// deterministicScore seeds a reproducible pseudo-tendency score from the
// message id and agent id, per spec §4.2 "seeded deterministically by
// message id + agent id so tests are reproducible".
func deterministicScore(messageID values.MessageID, agentID values.AgentID) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(messageID))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(agentID))
	return float64(h.Sum32()%10000) / 10000.0
}

// selectResponders implements spec §4.2 step 1.
func selectResponders(deps RoomDeps, s values.RoomState, sender values.SenderID, messageID values.MessageID, mentioned []string) []values.AgentID {
	if len(mentioned) > 0 {
		byName := map[string]values.AgentID{}
		for id, m := range deps.Roster {
			byName[m.Name] = id
		}
		var out []values.AgentID
		for _, name := range mentioned {
			if id, ok := byName[name]; ok && s.IsMember(id) {
				out = append(out, id)
			}
		}
		return out
	}

	type candidate struct {
		id    values.AgentID
		name  string
		score float64
	}
	var candidates []candidate
	for id := range s.Members {
		if sender.Kind == values.SenderAgent && string(id) == sender.ID {
			continue
		}
		m, ok := deps.Roster[id]
		if !ok {
			continue
		}
		score := deterministicScore(messageID, id) * m.ResponseTendency
		candidates = append(candidates, candidate{id: id, name: m.Name, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].name < candidates[j].name })

	var qualified []candidate
	for _, c := range candidates {
		if c.score > deps.ResponseThreshold {
			qualified = append(qualified, c)
		}
	}
	if len(qualified) == 0 {
		// "If no agent qualifies, choose the single agent with the highest
		// tendency." Stable by name on ties (sorted above).
		best := -1.0
		var bestID values.AgentID
		found := false
		for _, c := range candidates {
			if c.score > best {
				best = c.score
				bestID = c.id
				found = true
			}
		}
		if !found {
			return nil
		}
		return []values.AgentID{bestID}
	}

	fanCap := deps.FanOutCap
	if fanCap <= 0 || fanCap > len(qualified) {
		fanCap = len(qualified)
	}
	out := make([]values.AgentID, 0, fanCap)
	for i := 0; i < fanCap; i++ {
		out = append(out, qualified[i].id)
	}
	return out
}

// InterpretRoom is the pure Room transition function (spec §4.2).
func InterpretRoom(deps RoomDeps, s values.RoomState, msg any) (values.RoomState, []effects.Effect) {
	switch m := msg.(type) {

	case UserMessage:
		return onUserMessage(deps, s, m)

	case AgentResponse:
		return onAgentResponse(s, m)

	case AgentJoined:
		return onAgentJoined(s, m)

	case AgentLeft:
		return onAgentLeft(s, m)

	case AgentTyping:
		return withEffects(s, effects.Effect{
			Kind: effects.KindBroadcastToRoom,
			RoomID: s.Config.ID,
			BroadcastEvent: &effects.BroadcastEvent{
				Type:   "agent_typing",
				RoomID: s.Config.ID,
				Data:   map[string]any{"agentId": string(m.AgentID), "typing": m.Typing},
			},
		})

	case ClearMessages:
		return onClear(s, m.EventID, m.TimestampMS, "messages_cleared")

	case ResetRoom:
		return onClear(s, m.EventID, m.TimestampMS, "room_reset")

	case MessagesLoaded:
		s.Messages = m.Messages
		if len(s.Messages) > s.Cap {
			s.Messages = s.Messages[len(s.Messages)-s.Cap:]
		}
		return stateOnly(s)

	case RoomTick:
		return onRoomTick(deps, s, m)

	case RequestResponses:
		var fx []effects.Effect
		for _, id := range m.AgentIDs {
			if !s.IsMember(id) {
				continue
			}
			fx = append(fx, sendRespondEffect(deps, s, id, m.ContextSize))
		}
		return s, fx

	default:
		return noChange(s)
	}
}

func onUserMessage(deps RoomDeps, s values.RoomState, m UserMessage) (values.RoomState, []effects.Effect) {
	msg := values.ChatMessage{
		ID:          m.ID,
		RoomID:      s.Config.ID,
		Sender:      m.Sender,
		SenderName:  m.SenderName,
		Content:     m.Content,
		Type:        values.MessageChat,
		TimestampMS: m.TimestampMS,
		ReplyToID:   m.ReplyToID,
		Mentions:    m.MentionedAgents,
		Attachments: m.Attachments,
	}
	if err := msg.Validate(); err != nil {
		return noChange(s)
	}

	responders := selectResponders(deps, s, m.Sender, m.ID, m.MentionedAgents)

	next := s.AppendMessage(msg)
	next.Phase = values.RoomProcessing
	pr := map[values.AgentID]values.PendingResponder{}
	for _, id := range responders {
		pr[id] = values.PendingResponder{WaitingSinceMS: m.TimestampMS}
	}
	next.PendingResponders = pr

	fx := []effects.Effect{
		{Kind: effects.KindDBPersistMessage, Message: &msg},
		{
			Kind:   effects.KindBroadcastToRoom,
			RoomID: s.Config.ID,
			BroadcastEvent: &effects.BroadcastEvent{
				Type:   "message_added",
				RoomID: s.Config.ID,
				Data:   msg,
			},
		},
	}
	for _, id := range responders {
		fx = append(fx, sendRespondEffect(deps, next, id, deps.ContextWindowSize))
	}
	return next, fx
}

// sendRespondEffect builds the SEND_TO_ACTOR effect that asks agentID to
// respond. The reply tag is derived deterministically from the triggering
// message id and the agent id (not generated here: interpreters never
// synthesize ids, spec §4.1) — unique per (trigger, agent) pair, which is
// exactly the granularity the Agent interpreter needs for stale-reply checks.
func sendRespondEffect(deps RoomDeps, s values.RoomState, agentID values.AgentID, windowSize int) effects.Effect {
	if windowSize <= 0 {
		windowSize = deps.ContextWindowSize
	}
	ctx := s.ContextWindow(windowSize)
	trigger := values.ChatMessage{}
	if len(ctx) > 0 {
		trigger = ctx[len(ctx)-1]
	}
	return effects.Effect{
		Kind:   effects.KindSendToActor,
		Target: values.AgentAddress(agentID),
		SendMessage: RespondToMessage{
			RoomID:   s.Config.ID,
			Context:  ctx,
			Topic:    s.Config.Topic,
			Trigger:  trigger,
			ReplyTag: string(trigger.ID) + ":" + string(agentID),
		},
	}
}

func onAgentResponse(s values.RoomState, m AgentResponse) (values.RoomState, []effects.Effect) {
	msg := values.ChatMessage{
		ID:          m.MessageID,
		RoomID:      s.Config.ID,
		Sender:      values.AgentSender(m.AgentID),
		SenderName:  string(m.AgentID),
		Content:     m.Content,
		Type:        values.MessageChat,
		TimestampMS: m.TimestampMS,
	}
	next := s.AppendMessage(msg)
	next.PendingResponders = removePending(s.PendingResponders, m.AgentID)
	if len(next.PendingResponders) == 0 {
		next.Phase = values.RoomActive
	}
	fx := []effects.Effect{
		{Kind: effects.KindDBPersistMessage, Message: &msg},
		{
			Kind:   effects.KindBroadcastToRoom,
			RoomID: s.Config.ID,
			BroadcastEvent: &effects.BroadcastEvent{
				Type:   "message_added",
				RoomID: s.Config.ID,
				Data:   msg,
			},
		},
	}
	return next, fx
}

func onAgentJoined(s values.RoomState, m AgentJoined) (values.RoomState, []effects.Effect) {
	next := s
	next.Members = cloneMembers(s.Members)
	next.Members[m.AgentID] = struct{}{}
	if next.Phase == values.RoomIdle {
		next.Phase = values.RoomActive
	}
	line := values.NewSystemEvent(m.EventID, s.Config.ID, m.TimestampMS, values.MessageJoin,
		string(m.AgentID)+" joined the room")
	next = next.AppendMessage(line)
	return next, []effects.Effect{
		{Kind: effects.KindDBPersistMessage, Message: &line},
		{Kind: effects.KindBroadcastToRoom, RoomID: s.Config.ID, BroadcastEvent: &effects.BroadcastEvent{
			Type: "agent_joined", RoomID: s.Config.ID, Data: map[string]any{"agentId": string(m.AgentID)},
		}},
		{Kind: effects.KindBroadcastToRoom, RoomID: s.Config.ID, BroadcastEvent: &effects.BroadcastEvent{
			Type: "message_added", RoomID: s.Config.ID, Data: line,
		}},
	}
}

func onAgentLeft(s values.RoomState, m AgentLeft) (values.RoomState, []effects.Effect) {
	next := s
	next.Members = cloneMembers(s.Members)
	delete(next.Members, m.AgentID)
	next.PendingResponders = removePending(s.PendingResponders, m.AgentID)
	line := values.NewSystemEvent(m.EventID, s.Config.ID, m.TimestampMS, values.MessageLeave,
		string(m.AgentID)+" left the room")
	next = next.AppendMessage(line)
	return next, []effects.Effect{
		{Kind: effects.KindDBPersistMessage, Message: &line},
		{Kind: effects.KindBroadcastToRoom, RoomID: s.Config.ID, BroadcastEvent: &effects.BroadcastEvent{
			Type: "agent_left", RoomID: s.Config.ID, Data: map[string]any{"agentId": string(m.AgentID)},
		}},
		{Kind: effects.KindBroadcastToRoom, RoomID: s.Config.ID, BroadcastEvent: &effects.BroadcastEvent{
			Type: "message_added", RoomID: s.Config.ID, Data: line,
		}},
	}
}

func onClear(s values.RoomState, eventID values.MessageID, nowMS int64, notifType string) (values.RoomState, []effects.Effect) {
	next := s
	next.Messages = nil
	return next, []effects.Effect{
		{Kind: effects.KindDBDeleteRoomMessages, RoomID: s.Config.ID},
		{Kind: effects.KindBroadcastToRoom, RoomID: s.Config.ID, BroadcastEvent: &effects.BroadcastEvent{
			Type: "system_notification", RoomID: s.Config.ID,
			Data: map[string]any{"severity": "info", "message": notifType},
		}},
	}
}

func onRoomTick(deps RoomDeps, s values.RoomState, m RoomTick) (values.RoomState, []effects.Effect) {
	if len(s.PendingResponders) == 0 {
		return noChange(s)
	}
	var fx []effects.Effect
	next := s
	next.PendingResponders = map[values.AgentID]values.PendingResponder{}
	for id, pr := range s.PendingResponders {
		if m.NowMS-pr.WaitingSinceMS > deps.ResponseTimeoutMS {
			fx = append(fx, effects.Effect{
				Kind: effects.KindBroadcastToRoom, RoomID: s.Config.ID,
				BroadcastEvent: &effects.BroadcastEvent{
					Type: "system_notification", RoomID: s.Config.ID,
					Data: map[string]any{"severity": "warn", "message": string(id) + " timed out responding"},
				},
			})
			continue
		}
		next.PendingResponders[id] = pr
	}
	if len(next.PendingResponders) == 0 {
		next.Phase = values.RoomActive
	}
	if len(fx) == 0 {
		return noChange(s)
	}
	return next, fx
}

func cloneMembers(m map[values.AgentID]struct{}) map[values.AgentID]struct{} {
	out := make(map[values.AgentID]struct{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func removePending(m map[values.AgentID]values.PendingResponder, id values.AgentID) map[values.AgentID]values.PendingResponder {
	out := make(map[values.AgentID]values.PendingResponder, len(m))
	for k, v := range m {
		if k == id {
			continue
		}
		out[k] = v
	}
	return out
}
