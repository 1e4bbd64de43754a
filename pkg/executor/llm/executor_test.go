package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

type recordingSender struct {
	mu     sync.Mutex
	target values.ActorAddress
	msg    any
	got    chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{got: make(chan struct{}, 1)}
}

func (s *recordingSender) Send(target values.ActorAddress, msg any) {
	s.mu.Lock()
	s.target, s.msg = target, msg
	s.mu.Unlock()
	select {
	case s.got <- struct{}{}:
	default:
	}
}

func (s *recordingSender) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sender.Send")
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (string, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	return srv.URL, srv.Close
}

func textResponseHandler(text, stopReason string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "msg_test",
			"type":  "message",
			"role":  "assistant",
			"model": "claude-haiku-4-5-20251001",
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
			"stop_reason": stopReason,
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}
}

func TestExecutor_CallAnthropicRepliesWithApiResponse(t *testing.T) {
	baseURL, closeSrv := newTestServer(t, textResponseHandler("hello there", "end_turn"))
	defer closeSrv()

	sender := newRecordingSender()
	ex := NewExecutor(Config{APIKey: "test-key", BaseURL: baseURL}, sender)

	ex.Execute(effects.Effect{
		Kind:     effects.KindCallAnthropic,
		ReplyTag: "tag-1",
		LLMRequest: &effects.LLMRequest{
			AgentID:  values.AgentID("agent-1"),
			Model:    "claude-haiku-4-5-20251001",
			System:   "you are a test agent",
			Messages: []values.ConversationTurn{{Role: "user", Content: "hi"}},
		},
	})

	sender.wait(t)
	resp, ok := sender.msg.(interpreter.ApiResponse)
	require.True(t, ok)
	assert.Equal(t, "tag-1", resp.ReplyTag)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, values.AgentAddress("agent-1"), sender.target)
}

func TestExecutor_CallAnthropicToolUse(t *testing.T) {
	baseURL, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "msg_test",
			"type":  "message",
			"role":  "assistant",
			"model": "claude-haiku-4-5-20251001",
			"content": []map[string]any{
				{"type": "tool_use", "id": "call-1", "name": "bash", "input": map[string]any{"command": "ls"}},
			},
			"stop_reason": "tool_use",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	})
	defer closeSrv()

	sender := newRecordingSender()
	ex := NewExecutor(Config{APIKey: "test-key", BaseURL: baseURL}, sender)

	ex.Execute(effects.Effect{
		Kind:     effects.KindCallAnthropic,
		ReplyTag: "tag-2",
		LLMRequest: &effects.LLMRequest{
			AgentID:  values.AgentID("agent-1"),
			Model:    "claude-haiku-4-5-20251001",
			Messages: []values.ConversationTurn{{Role: "user", Content: "run ls"}},
		},
	})

	sender.wait(t)
	resp, ok := sender.msg.(interpreter.ApiResponse)
	require.True(t, ok)
	assert.Equal(t, "tool_use", resp.StopReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "bash", resp.ToolCalls[0].Name)
}

func TestExecutor_CancelAPICallSuppressesReply(t *testing.T) {
	release := make(chan struct{})
	baseURL, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		textResponseHandler("too late", "end_turn")(w, r)
	})
	defer closeSrv()
	defer close(release)

	sender := newRecordingSender()
	ex := NewExecutor(Config{APIKey: "test-key", BaseURL: baseURL}, sender)

	done := make(chan struct{})
	go func() {
		ex.Execute(effects.Effect{
			Kind:     effects.KindCallAnthropic,
			ReplyTag: "tag-3",
			LLMRequest: &effects.LLMRequest{
				AgentID:  values.AgentID("agent-1"),
				Model:    "claude-haiku-4-5-20251001",
				Messages: []values.ConversationTurn{{Role: "user", Content: "hi"}},
			},
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	ex.Execute(effects.Effect{Kind: effects.KindCancelAPICall, ReplyTag: "tag-3"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Nil(t, sender.msg, "a cancelled call must not deliver a reply")
}
