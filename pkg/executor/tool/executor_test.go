package tool

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

type fakeSender struct {
	mu     sync.Mutex
	target values.ActorAddress
	msg    any
	got    chan struct{}
}

func newFakeSender() *fakeSender { return &fakeSender{got: make(chan struct{}, 1)} }

func (s *fakeSender) Send(target values.ActorAddress, msg any) {
	s.mu.Lock()
	s.target, s.msg = target, msg
	s.mu.Unlock()
	select {
	case s.got <- struct{}{}:
	default:
	}
}

func (s *fakeSender) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sender.Send")
	}
}

func TestExecute_BatchRepliesWithToolResultMsg(t *testing.T) {
	sender := newFakeSender()
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.SharedWorkspace = t.TempDir()
	ex := NewExecutor(cfg, nil, sender, nil)

	ex.Execute(effects.Effect{
		Kind:     effects.KindExecuteToolsBatch,
		ReplyTag: "tag-1",
		ToolCalls: []effects.ToolCall{
			{ID: "call-1", Name: "bash", AgentID: values.AgentID("agent-1"), Input: map[string]any{"command": "echo hi"}},
		},
	})

	sender.wait(t)
	result, ok := sender.msg.(interpreter.ToolResultMsg)
	require.True(t, ok)
	assert.Equal(t, "tag-1", result.ReplyTag)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "hi", result.Results[0].Content)
	assert.False(t, result.Results[0].IsError)
	assert.Equal(t, values.AgentAddress("agent-1"), sender.target)
}

type fakeMasker struct {
	calls int
}

func (m *fakeMasker) Mask(content string) string {
	m.calls++
	return strings.ReplaceAll(content, "sk-FAKESECRET", "[MASKED_API_KEY]")
}

func TestExecute_MasksSuccessfulToolOutput(t *testing.T) {
	sender := newFakeSender()
	masker := &fakeMasker{}
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.SharedWorkspace = t.TempDir()
	ex := NewExecutor(cfg, nil, sender, masker)

	ex.Execute(effects.Effect{
		Kind:     effects.KindExecuteToolsBatch,
		ReplyTag: "tag-1",
		ToolCalls: []effects.ToolCall{
			{ID: "call-1", Name: "bash", AgentID: values.AgentID("agent-1"), Input: map[string]any{"command": "echo sk-FAKESECRET"}},
		},
	})

	sender.wait(t)
	result := sender.msg.(interpreter.ToolResultMsg)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "[MASKED_API_KEY]", result.Results[0].Content)
	assert.Equal(t, 1, masker.calls)
}

func TestExecute_DoesNotMaskErrorOutput(t *testing.T) {
	sender := newFakeSender()
	masker := &fakeMasker{}
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.SharedWorkspace = t.TempDir()
	ex := NewExecutor(cfg, nil, sender, masker)

	ex.Execute(effects.Effect{
		Kind:     effects.KindExecuteToolsBatch,
		ReplyTag: "tag-1",
		ToolCalls: []effects.ToolCall{
			{ID: "call-1", Name: "nonexistent", AgentID: values.AgentID("agent-1"), Input: map[string]any{}},
		},
	})

	sender.wait(t)
	result := sender.msg.(interpreter.ToolResultMsg)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].IsError)
	assert.Equal(t, 0, masker.calls, "error output is not passed through the masker")
}

func TestExecute_UnknownToolReturnsError(t *testing.T) {
	sender := newFakeSender()
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.SharedWorkspace = t.TempDir()
	ex := NewExecutor(cfg, nil, sender, nil)

	ex.Execute(effects.Effect{
		Kind:     effects.KindExecuteToolsBatch,
		ReplyTag: "tag-1",
		ToolCalls: []effects.ToolCall{
			{ID: "call-1", Name: "nonexistent", AgentID: values.AgentID("agent-1"), Input: map[string]any{}},
		},
	})

	sender.wait(t)
	result := sender.msg.(interpreter.ToolResultMsg)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].IsError)
}

func TestExecute_CancelSuppressesReply(t *testing.T) {
	sender := newFakeSender()
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.SharedWorkspace = t.TempDir()
	ex := NewExecutor(cfg, nil, sender, nil)

	done := make(chan struct{})
	go func() {
		ex.Execute(effects.Effect{
			Kind:     effects.KindExecuteToolsBatch,
			ReplyTag: "tag-2",
			ToolCalls: []effects.ToolCall{
				{ID: "call-1", Name: "bash", AgentID: values.AgentID("agent-1"), Input: map[string]any{"command": "sleep 5"}},
			},
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	ex.Execute(effects.Effect{Kind: effects.KindCancelToolExecution, ReplyTag: "tag-2"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Nil(t, sender.msg, "a cancelled batch must not deliver a reply")
}
