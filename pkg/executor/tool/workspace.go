package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

const sharedPathPrefix = "/shared/"

// agentWorkspace returns the sandboxed directory owned by one agent (spec
// §5 "Agent workspace directories are owned per-agent").
func (ex *Executor) agentWorkspace(agentID values.AgentID) string {
	return filepath.Join(ex.cfg.WorkspaceRoot, string(agentID))
}

// resolvePath maps a tool-supplied path onto the filesystem, rejecting
// anything that would escape the agent's own workspace or the shared
// workspace (spec §4.7 "any path resolving outside the workspace ... is
// rejected"). A leading "/shared/" routes into the shared workspace instead
// of the caller's own.
func (ex *Executor) resolvePath(agentID values.AgentID, rawPath string) (string, error) {
	root := ex.agentWorkspace(agentID)
	rel := strings.TrimPrefix(rawPath, "/")
	if strings.HasPrefix(rawPath, sharedPathPrefix) {
		root = ex.cfg.SharedWorkspace
		rel = strings.TrimPrefix(rawPath, sharedPathPrefix)
	}

	full := filepath.Clean(filepath.Join(root, rel))
	rootClean := filepath.Clean(root)
	if full != rootClean && !strings.HasPrefix(full, rootClean+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q resolves outside the workspace", rawPath)
	}
	return full, nil
}

func atomicWrite(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".edit-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
