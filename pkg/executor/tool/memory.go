package tool

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// sharedAgentID is the pseudo-agent id denoting the room-wide memory store
// (spec §4.7 "memory").
const sharedAgentID = "_shared_"

// runMemory implements the memory tool: {view, create, str_replace, insert,
// delete, rename} against the artifacts table, keyed by (roomId, agentId,
// path). It calls pkg/executor/db.Store directly rather than round-tripping
// through a DB_* effect, because the reply must carry the read result
// synchronously within this EXECUTE_TOOLS_BATCH call (see DESIGN.md).
func (ex *Executor) runMemory(call effects.ToolCall) (string, bool) {
	command, _ := call.Input["command"].(string)
	path, _ := call.Input["path"].(string)
	if path == "" && command != "view" {
		return "path is required", true
	}

	agentID := string(call.AgentID)
	if shared, _ := call.Input["shared"].(bool); shared {
		agentID = sharedAgentID
	}

	switch command {
	case "view":
		if path == "" {
			return ex.listMemory(call.RoomID, agentID)
		}
		content, found, err := ex.store.ReadArtifact(call.RoomID, agentID, path)
		if err != nil {
			return err.Error(), true
		}
		if !found {
			return "not found", true
		}
		return content, false

	case "create":
		content, _ := call.Input["file_text"].(string)
		if err := ex.store.WriteArtifact(call.RoomID, agentID, path, content, uuid.NewString(), nowMS()); err != nil {
			return err.Error(), true
		}
		return fmt.Sprintf("wrote %s", path), false

	case "str_replace":
		return ex.memoryStrReplace(call.RoomID, agentID, path, call.Input)

	case "insert":
		return ex.memoryInsert(call.RoomID, agentID, path, call.Input)

	case "delete":
		if err := ex.store.DeleteArtifact(call.RoomID, agentID, path); err != nil {
			return err.Error(), true
		}
		return fmt.Sprintf("deleted %s", path), false

	case "rename":
		newPath, _ := call.Input["new_path"].(string)
		if newPath == "" {
			return "new_path is required", true
		}
		if err := ex.store.RenameArtifact(call.RoomID, agentID, path, newPath, nowMS()); err != nil {
			return err.Error(), true
		}
		return fmt.Sprintf("renamed %s to %s", path, newPath), false

	default:
		return fmt.Sprintf("unknown memory command %q", command), true
	}
}

func (ex *Executor) listMemory(roomID values.RoomID, agentID string) (string, bool) {
	paths, err := ex.store.ListArtifacts(roomID, agentID)
	if err != nil {
		return err.Error(), true
	}
	if len(paths) == 0 {
		return "(no entries)", false
	}
	return strings.Join(paths, "\n"), false
}

func (ex *Executor) memoryStrReplace(roomID values.RoomID, agentID, path string, input map[string]any) (string, bool) {
	oldStr, _ := input["old_str"].(string)
	newStr, _ := input["new_str"].(string)
	if oldStr == "" {
		return "old_str is required", true
	}

	content, found, err := ex.store.ReadArtifact(roomID, agentID, path)
	if err != nil {
		return err.Error(), true
	}
	if !found {
		return "not found", true
	}

	count := strings.Count(content, oldStr)
	if count == 0 {
		return "old_str not found", true
	}
	if count > 1 {
		return fmt.Sprintf("old_str is not unique (%d occurrences)", count), true
	}

	updated := strings.Replace(content, oldStr, newStr, 1)
	if err := ex.store.WriteArtifact(roomID, agentID, path, updated, uuid.NewString(), nowMS()); err != nil {
		return err.Error(), true
	}
	return fmt.Sprintf("updated %s", path), false
}

func (ex *Executor) memoryInsert(roomID values.RoomID, agentID, path string, input map[string]any) (string, bool) {
	newStr, _ := input["new_str"].(string)
	line, ok := intInput(input["insert_line"])
	if !ok {
		return "insert_line is required", true
	}

	content, found, err := ex.store.ReadArtifact(roomID, agentID, path)
	if err != nil {
		return err.Error(), true
	}
	if !found {
		content = ""
	}

	lines := strings.Split(content, "\n")
	if line < 0 || line > len(lines) {
		return fmt.Sprintf("insert_line %d out of range (%d lines)", line, len(lines)), true
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:line]...)
	out = append(out, newStr)
	out = append(out, lines[line:]...)

	if err := ex.store.WriteArtifact(roomID, agentID, path, strings.Join(out, "\n"), uuid.NewString(), nowMS()); err != nil {
		return err.Error(), true
	}
	return fmt.Sprintf("inserted into %s after line %d", path, line), false
}
