package interpreter

import "github.com/codeready-toolchain/agentrooms/pkg/effects"

// builtinTools is the fixed catalogue of tools every agent may call (spec
// §4.7), expressed as static Anthropic tool schemas. Tool definitions are
// data, not I/O, so building them here keeps callAnthropicEffect pure; the
// tool executor (pkg/executor/tool) performs the actual side effects these
// schemas describe.
var builtinTools = []effects.ToolDefinition{
	{
		Name:        "bash",
		Description: "Run a shell command in the room's sandboxed workspace and return its output.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "description": "the shell command to run"},
			},
			"required": []string{"command"},
		},
	},
	{
		Name:        "str_replace_based_edit_tool",
		Description: "View, create, or edit a text file in the room's sandboxed workspace.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command":    map[string]any{"type": "string", "enum": []string{"view", "create", "str_replace", "insert"}},
				"path":       map[string]any{"type": "string"},
				"file_text":  map[string]any{"type": "string"},
				"old_str":    map[string]any{"type": "string"},
				"new_str":    map[string]any{"type": "string"},
				"insert_line": map[string]any{"type": "integer"},
			},
			"required": []string{"command", "path"},
		},
	},
	{
		Name:        "memory",
		Description: "Read, write, or list entries in the agent's persistent key-value notes, or the room's shared notes.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "enum": []string{"view", "create", "str_replace", "delete", "rename"}},
				"path":    map[string]any{"type": "string"},
				"shared":  map[string]any{"type": "boolean", "description": "true to use the room-wide shared store"},
			},
			"required": []string{"command", "path"},
		},
	},
	{
		Name:        "fetch_reference",
		Description: "Fetch a reference document by name from the room's configured reference set.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
			"required": []string{"name"},
		},
	},
}

// toolsFor filters the builtin catalogue by an agent's allow-list. A nil
// allowList means every builtin tool is available (spec §4.3 AgentConfig
// doc: "nil for all built-in tools allowed").
func toolsFor(allowList []string) []effects.ToolDefinition {
	if allowList == nil {
		return builtinTools
	}
	allowed := make(map[string]struct{}, len(allowList))
	for _, name := range allowList {
		allowed[name] = struct{}{}
	}
	out := make([]effects.ToolDefinition, 0, len(allowList))
	for _, t := range builtinTools {
		if _, ok := allowed[t.Name]; ok {
			out = append(out, t)
		}
	}
	return out
}
