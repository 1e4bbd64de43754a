package tool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.SharedWorkspace = t.TempDir()
	cfg.DefaultTimeout = 2 * time.Second
	return NewExecutor(cfg, nil, nil, nil)
}

func TestRunBash_CapturesStdout(t *testing.T) {
	ex := newTestExecutor(t)
	content, isError := ex.runBash(t.Context(), effects.ToolCall{
		AgentID: values.AgentID("agent-1"),
		Input:   map[string]any{"command": "echo 42"},
	})
	require.False(t, isError)
	assert.Equal(t, "42", content)
}

func TestRunBash_NonZeroExitIsError(t *testing.T) {
	ex := newTestExecutor(t)
	_, isError := ex.runBash(t.Context(), effects.ToolCall{
		AgentID: values.AgentID("agent-1"),
		Input:   map[string]any{"command": "exit 7"},
	})
	assert.True(t, isError)
}

func TestRunBash_DeniedCommandRejectedPreSpawn(t *testing.T) {
	ex := newTestExecutor(t)
	content, isError := ex.runBash(t.Context(), effects.ToolCall{
		AgentID: values.AgentID("agent-1"),
		Input:   map[string]any{"command": "sudo rm -rf /tmp/x"},
	})
	assert.True(t, isError)
	assert.Contains(t, content, "rejected")
}

func TestRunBash_TimeoutKillsProcess(t *testing.T) {
	ex := newTestExecutor(t)
	ex.cfg.DefaultTimeout = 50 * time.Millisecond
	content, isError := ex.runBash(t.Context(), effects.ToolCall{
		AgentID: values.AgentID("agent-1"),
		Input:   map[string]any{"command": "sleep 5"},
	})
	assert.True(t, isError)
	assert.Contains(t, content, "killed")
}

func TestTruncateSymmetric(t *testing.T) {
	small := "short output"
	assert.Equal(t, small, truncateSymmetric(small))

	big := make([]byte, 2*outputTruncateKeep+100)
	for i := range big {
		big[i] = 'x'
	}
	out := truncateSymmetric(string(big))
	assert.Contains(t, out, "[...truncated 100 characters...]")
}
