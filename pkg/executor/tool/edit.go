package tool

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
)

// runEdit implements str_replace_based_edit_tool: {view, create, str_replace,
// insert} (spec §4.7).
func (ex *Executor) runEdit(call effects.ToolCall) (string, bool) {
	command, _ := call.Input["command"].(string)
	rawPath, _ := call.Input["path"].(string)
	if rawPath == "" {
		return "path is required", true
	}
	path, err := ex.resolvePath(call.AgentID, rawPath)
	if err != nil {
		return err.Error(), true
	}

	switch command {
	case "view":
		return viewFile(path)
	case "create":
		fileText, _ := call.Input["file_text"].(string)
		if err := atomicWrite(path, fileText); err != nil {
			return err.Error(), true
		}
		return fmt.Sprintf("created %s", rawPath), false
	case "str_replace":
		return strReplace(path, rawPath, call.Input)
	case "insert":
		return insertLine(path, rawPath, call.Input)
	default:
		return fmt.Sprintf("unknown edit command %q", command), true
	}
}

func viewFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "file not found", true
		}
		return err.Error(), true
	}
	return string(data), false
}

func strReplace(path, rawPath string, input map[string]any) (string, bool) {
	oldStr, _ := input["old_str"].(string)
	newStr, _ := input["new_str"].(string)
	if oldStr == "" {
		return "old_str is required", true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "file not found", true
		}
		return err.Error(), true
	}
	content := string(data)

	count := strings.Count(content, oldStr)
	if count == 0 {
		return "old_str not found in file", true
	}
	if count > 1 {
		return fmt.Sprintf("old_str is not unique in file (%d occurrences)", count), true
	}

	updated := strings.Replace(content, oldStr, newStr, 1)
	if err := atomicWrite(path, updated); err != nil {
		return err.Error(), true
	}
	return fmt.Sprintf("edited %s\n%s", rawPath, diffSummary(content, updated)), false
}

func insertLine(path, rawPath string, input map[string]any) (string, bool) {
	newStr, _ := input["new_str"].(string)
	line, ok := intInput(input["insert_line"])
	if !ok {
		return "insert_line is required", true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "file not found", true
		}
		return err.Error(), true
	}

	lines := strings.Split(string(data), "\n")
	if line < 0 || line > len(lines) {
		return fmt.Sprintf("insert_line %d out of range (file has %d lines)", line, len(lines)), true
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:line]...)
	out = append(out, newStr)
	out = append(out, lines[line:]...)

	if err := atomicWrite(path, strings.Join(out, "\n")); err != nil {
		return err.Error(), true
	}
	return fmt.Sprintf("inserted into %s after line %d", rawPath, line), false
}

// intInput accepts either a JSON number (decoded as float64) or a string,
// since tool_use inputs round-trip through map[string]any via encoding/json.
func intInput(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

// diffSummary renders a compact unified-style diff for the tool reply, in
// the same diff-segment-walking idiom as the pack's other diffmatchpatch
// consumers, rather than DiffPrettyText's HTML markup.
func diffSummary(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sb.WriteString("+")
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			sb.WriteString("-")
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}
