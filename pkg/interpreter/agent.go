package interpreter

import (
	"fmt"
	"sort"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// AgentDeps carries the tunables an Agent transition needs beyond its own
// state and incoming message (spec §4.3 / §9 Open Question decisions).
type AgentDeps struct {
	MaxToolCalls  int
	MaxRetries    int
	BackoffBaseMS int64
	BackoffCapMS  int64
}

func DefaultAgentDeps() AgentDeps {
	return AgentDeps{
		MaxToolCalls:  values.DefaultMaxToolCalls,
		MaxRetries:    3,
		BackoffBaseMS: 1000,
		BackoffCapMS:  30_000,
	}
}

// backoffDelay returns the delay before retry attempt n (1-indexed),
// base * 2^(n-1) capped at BackoffCapMS (spec §9 Open Question decision).
func backoffDelay(deps AgentDeps, attempt int) int64 {
	d := deps.BackoffBaseMS
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= deps.BackoffCapMS {
			return deps.BackoffCapMS
		}
	}
	if d > deps.BackoffCapMS {
		d = deps.BackoffCapMS
	}
	return d
}

// InterpretAgent is the pure Agent transition function (spec §4.3).
func InterpretAgent(deps AgentDeps, s values.AgentState, msg any) (values.AgentState, []effects.Effect) {
	switch m := msg.(type) {

	case RespondToMessage:
		return onRespondToMessage(deps, s, m)

	case ApiResponse:
		if m.ReplyTag != s.ReplyTag || s.Status == values.AgentIdle {
			return noChange(s)
		}
		if m.StopReason == "tool_use" && len(m.ToolCalls) > 0 {
			return onToolUse(deps, s, m)
		}
		return onFinalAnswer(s, m)

	case ToolResultMsg:
		if m.ReplyTag != s.ReplyTag || s.Status != values.AgentAwaitingTools {
			return noChange(s)
		}
		return onToolResult(s, m)

	case ApiError:
		if m.ReplyTag != s.ReplyTag {
			return noChange(s)
		}
		return onApiError(deps, s, m)

	case RetryApiCall:
		if m.ReplyTag != s.ReplyTag {
			return noChange(s)
		}
		return stateOnly(s), []effects.Effect{callAnthropicEffect(s)}

	case JoinRoom:
		s.RoomID = &m.RoomID
		return noChange(s)

	case LeaveRoom:
		s.RoomID = nil
		return noChange(s)

	case SetStatus:
		s.Status = m.Status
		return noChange(s)

	case StartTask:
		s.TaskID = &m.TaskID
		return noChange(s)

	case CompleteTask:
		s.TaskID = nil
		return noChange(s)

	case ResetAgent:
		return stateOnly(values.NewAgentState(s.Config))

	default:
		return noChange(s)
	}
}

// onRespondToMessage starts a fresh response cycle. If the agent was already
// mid-cycle (thinking/awaiting_tools/speaking) for an earlier reply tag, that
// cycle is superseded: its in-flight LLM call or tool batch is cancelled
// before the new one starts (spec §4.3 "cancellation").
func onRespondToMessage(deps AgentDeps, s values.AgentState, m RespondToMessage) (values.AgentState, []effects.Effect) {
	var fx []effects.Effect
	if s.Status != values.AgentIdle && s.ReplyTag != "" {
		fx = append(fx, cancelInFlight(s)...)
	}

	transcript := values.FormatTranscript(m.Topic, m.Context)
	s.History = []values.ConversationTurn{{Role: "user", Content: transcript}}
	s.ToolCallCount = 0
	s.Attempts = 0
	s.ReplyTag = m.ReplyTag
	s.Status = values.AgentThinking
	s.RoomID = &m.RoomID

	fx = append(fx, callAnthropicEffect(s))
	return s, fx
}

func cancelInFlight(s values.AgentState) []effects.Effect {
	switch s.Status {
	case values.AgentAwaitingTools:
		return []effects.Effect{{Kind: effects.KindCancelToolExecution, ReplyTag: s.ReplyTag}}
	default:
		return []effects.Effect{{Kind: effects.KindCancelAPICall, ReplyTag: s.ReplyTag}}
	}
}

func callAnthropicEffect(s values.AgentState) effects.Effect {
	return effects.Effect{
		Kind:     effects.KindCallAnthropic,
		ReplyTag: s.ReplyTag,
		LLMRequest: &effects.LLMRequest{
			AgentID:     s.Config.ID,
			Model:       s.Config.Model,
			System:      personaSystemPrompt(s.Config),
			Messages:    s.History,
			Tools:       toolsFor(s.Config.ToolAllowList),
			Temperature: s.Config.Temperature,
		},
	}
}

func personaSystemPrompt(cfg values.AgentConfig) string {
	prompt := cfg.Description
	if len(cfg.PersonalityTraits) == 0 {
		return prompt
	}
	names := make([]string, 0, len(cfg.PersonalityTraits))
	for k := range cfg.PersonalityTraits {
		names = append(names, k)
	}
	sort.Strings(names)
	prompt += "\n\ntraits:"
	for _, k := range names {
		prompt += fmt.Sprintf(" %s=%.2f", k, cfg.PersonalityTraits[k])
	}
	return prompt
}

func onToolUse(deps AgentDeps, s values.AgentState, m ApiResponse) (values.AgentState, []effects.Effect) {
	if s.ToolCallCount+len(m.ToolCalls) > deps.MaxToolCalls {
		return onBudgetExceeded(s)
	}
	s.History = append(s.History, values.ConversationTurn{Role: "assistant", Content: m.Text})
	s.ToolCallCount += len(m.ToolCalls)
	s.Status = values.AgentAwaitingTools
	s.Attempts = 0

	var calls []effects.ToolCall
	for _, tc := range m.ToolCalls {
		calls = append(calls, effects.ToolCall{
			ID:      tc.ID,
			Name:    tc.Name,
			Input:   tc.Input,
			AgentID: s.Config.ID,
			RoomID:  currentRoomID(s),
		})
	}
	return s, []effects.Effect{{
		Kind:      effects.KindExecuteToolsBatch,
		ReplyTag:  s.ReplyTag,
		ToolCalls: calls,
	}}
}

func onToolResult(s values.AgentState, m ToolResultMsg) (values.AgentState, []effects.Effect) {
	for _, r := range m.Results {
		s.History = append(s.History, values.ConversationTurn{
			Role:       "tool",
			Content:    r.Content,
			ToolCallID: r.CallID,
			ToolName:   r.Name,
		})
	}
	s.History = trimHistory(s.History, s.HistoryCap)
	s.Status = values.AgentThinking
	return s, []effects.Effect{callAnthropicEffect(s)}
}

func onFinalAnswer(s values.AgentState, m ApiResponse) (values.AgentState, []effects.Effect) {
	s.Status = values.AgentSpeaking
	s.LastSpokeAtMS = m.NowMS
	s.MessageCount++
	fx := speakEffects(s, m.Text, m.NowMS)
	s.Status = values.AgentIdle
	s.History = nil
	s.ReplyTag = ""
	s.Attempts = 0
	return s, fx
}

// onBudgetExceeded drops the in-flight conversation once the agent's
// tool-call budget is used up: no AgentResponse is spoken, only a
// system_notification to the room (spec §4.3 "budget exceeded").
func onBudgetExceeded(s values.AgentState) (values.AgentState, []effects.Effect) {
	roomID := currentRoomID(s)
	fx := []effects.Effect{{
		Kind: effects.KindBroadcastToRoom, RoomID: roomID,
		BroadcastEvent: &effects.BroadcastEvent{
			Type: "system_notification", RoomID: roomID,
			Data: map[string]any{
				"severity": "error",
				"message":  string(s.Config.ID) + " exceeded its tool call budget and gave up on this turn",
			},
		},
	}}
	s.Status = values.AgentIdle
	s.History = nil
	s.ReplyTag = ""
	s.ToolCallCount = 0
	s.Attempts = 0
	return s, fx
}

func onApiError(deps AgentDeps, s values.AgentState, m ApiError) (values.AgentState, []effects.Effect) {
	if m.Transient && s.Attempts < deps.MaxRetries {
		s.Attempts++
		delay := backoffDelay(deps, s.Attempts)
		return s, []effects.Effect{{
			Kind: effects.KindScheduleDelay,
			Schedule: &effects.ScheduleSpec{
				Target:  values.AgentAddress(s.Config.ID),
				Message: RetryApiCall{ReplyTag: s.ReplyTag},
				DelayMS: delay,
			},
		}}
	}
	fx := speakEffects(s, "(sorry, I ran into a problem answering that: "+m.Message+")", m.NowMS)
	fx = append(fx, effects.Effect{
		Kind: effects.KindBroadcastToRoom, RoomID: currentRoomID(s),
		BroadcastEvent: &effects.BroadcastEvent{
			Type: "system_notification", RoomID: currentRoomID(s),
			Data: map[string]any{"severity": "error", "message": string(s.Config.ID) + " exhausted retries: " + m.Message},
		},
	})
	s.Status = values.AgentIdle
	s.History = nil
	s.ReplyTag = ""
	s.Attempts = 0
	return s, fx
}

// speakEffects emits the room-bound AgentResponse. The message id is derived
// deterministically from the reply tag that produced it, not generated here:
// interpreters never synthesize ids (spec §4.1), and a reply tag is already
// unique per response cycle (stamped by the runtime on RespondToMessage).
func speakEffects(s values.AgentState, content string, nowMS int64) []effects.Effect {
	roomID := currentRoomID(s)
	return []effects.Effect{{
		Kind:   effects.KindSendToActor,
		Target: values.RoomAddress(roomID),
		SendMessage: AgentResponse{
			AgentID:     s.Config.ID,
			MessageID:   values.MessageID(s.ReplyTag + ":response"),
			TimestampMS: nowMS,
			Content:     content,
		},
	}}
}

func currentRoomID(s values.AgentState) values.RoomID {
	if s.RoomID == nil {
		return ""
	}
	return *s.RoomID
}

func trimHistory(h []values.ConversationTurn, cap int) []values.ConversationTurn {
	if cap <= 0 || len(h) <= cap {
		return h
	}
	return h[len(h)-cap:]
}
