package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

func TestRunEdit_CreateAndView(t *testing.T) {
	ex := newTestExecutor(t)
	agent := values.AgentID("agent-1")

	_, isError := ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "create", "path": "notes.md", "file_text": "hello\nworld"},
	})
	require.False(t, isError)

	content, isError := ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "view", "path": "notes.md"},
	})
	require.False(t, isError)
	assert.Equal(t, "hello\nworld", content)
}

func TestRunEdit_StrReplaceRequiresUniqueMatch(t *testing.T) {
	ex := newTestExecutor(t)
	agent := values.AgentID("agent-1")
	_, isError := ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "create", "path": "f.txt", "file_text": "foo foo"},
	})
	require.False(t, isError)

	_, isError = ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "str_replace", "path": "f.txt", "old_str": "foo", "new_str": "bar"},
	})
	assert.True(t, isError, "non-unique old_str must fail")

	content, err := os.ReadFile(filepath.Join(ex.cfg.WorkspaceRoot, string(agent), "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "foo foo", string(content), "file must be unchanged on error")
}

func TestRunEdit_StrReplaceAppliesUniqueMatch(t *testing.T) {
	ex := newTestExecutor(t)
	agent := values.AgentID("agent-1")
	_, isError := ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "create", "path": "f.txt", "file_text": "hello world"},
	})
	require.False(t, isError)

	_, isError = ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "str_replace", "path": "f.txt", "old_str": "world", "new_str": "there"},
	})
	require.False(t, isError)

	content, isError := ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "view", "path": "f.txt"},
	})
	require.False(t, isError)
	assert.Equal(t, "hello there", content)
}

func TestRunEdit_PathEscapeRejected(t *testing.T) {
	ex := newTestExecutor(t)
	_, isError := ex.runEdit(effects.ToolCall{
		AgentID: values.AgentID("agent-1"),
		Input:   map[string]any{"command": "view", "path": "../../etc/passwd"},
	})
	assert.True(t, isError)
}

func TestRunEdit_SharedPrefixRoutesToSharedWorkspace(t *testing.T) {
	ex := newTestExecutor(t)
	_, isError := ex.runEdit(effects.ToolCall{
		AgentID: values.AgentID("agent-1"),
		Input:   map[string]any{"command": "create", "path": "/shared/notes.md", "file_text": "shared content"},
	})
	require.False(t, isError)

	content, err := os.ReadFile(filepath.Join(ex.cfg.SharedWorkspace, "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, "shared content", string(content))
}

func TestRunEdit_InsertLine(t *testing.T) {
	ex := newTestExecutor(t)
	agent := values.AgentID("agent-1")
	_, isError := ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "create", "path": "f.txt", "file_text": "a\nb\nc"},
	})
	require.False(t, isError)

	_, isError = ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "insert", "path": "f.txt", "insert_line": float64(1), "new_str": "x"},
	})
	require.False(t, isError)

	content, isError := ex.runEdit(effects.ToolCall{
		AgentID: agent,
		Input:   map[string]any{"command": "view", "path": "f.txt"},
	})
	require.False(t, isError)
	assert.Equal(t, "a\nx\nb\nc", content)
}
