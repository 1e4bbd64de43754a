package tool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
)

// denyPatterns blocks obvious destructive commands pre-spawn (spec §6 "Tool
// safety (bash)").
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*rm\s+-rf?\s+[/~]`),
	regexp.MustCompile(`^\s*sudo\b`),
	regexp.MustCompile(`^\s*mkfs\b`),
	regexp.MustCompile(`^\s*dd\s+if=`),
	regexp.MustCompile(`>\s*/dev/`),
	regexp.MustCompile(`:(){ :\|:& };:`),
	regexp.MustCompile(`^\s*chmod\s+-R?\s+777\s+/`),
	regexp.MustCompile(`^\s*chown\s+-R?\s+\S+\s+/`),
}

func isDenied(command string) bool {
	for _, p := range denyPatterns {
		if p.MatchString(command) {
			return true
		}
	}
	return false
}

const (
	outputTruncateKeep = 10 * 1024 // spec §6 "10 KB on each side"
	maxCaptureBytes    = 1 << 20   // bound the in-memory buffer before symmetric trim
)

// allowedEnvVars is the sanitised environment passed to every spawned
// command (spec §4.7 "sanitised environment"), mirroring the allowlist
// idiom of a direct-execution tool backend in the pack.
var allowedEnvVars = []string{"PATH", "HOME", "LANG", "LC_ALL"}

func sanitizedEnv(workDir string) []string {
	env := make([]string, 0, len(allowedEnvVars)+1)
	for _, key := range allowedEnvVars {
		if v := os.Getenv(key); v != "" {
			env = append(env, key+"="+v)
		}
	}
	env = append(env, "PWD="+workDir)
	return env
}

func (ex *Executor) runBash(ctx context.Context, call effects.ToolCall) (string, bool) {
	command, _ := call.Input["command"].(string)
	if strings.TrimSpace(command) == "" {
		return "command is required", true
	}
	if isDenied(command) {
		return "command rejected by safety policy", true
	}

	timeout := ex.cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if ex.cfg.MaxTimeout > 0 && timeout > ex.cfg.MaxTimeout {
		timeout = ex.cfg.MaxTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	workDir := ex.agentWorkspace(call.AgentID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Sprintf("workspace error: %v", err), true
	}

	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = sanitizedEnv(workDir)

	var stdout, stderr limitedBuffer
	stdout.max, stderr.max = maxCaptureBytes, maxCaptureBytes
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var sb strings.Builder
	sb.WriteString(truncateSymmetric(stdout.String()))
	if errText := truncateSymmetric(stderr.String()); errText != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(errText)
	}

	if execCtx.Err() == context.DeadlineExceeded {
		sb.WriteString(fmt.Sprintf("\n[killed: exceeded %s timeout]", timeout))
		return sb.String(), true
	}
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			sb.WriteString("\n" + runErr.Error())
		}
		return sb.String(), true
	}
	return sb.String(), false
}

// truncateSymmetric keeps the first and last outputTruncateKeep bytes of s
// with a marker in between, once s is large enough that both halves would
// be disjoint (spec §6 "10 KB on each side").
func truncateSymmetric(s string) string {
	if len(s) <= 2*outputTruncateKeep {
		return s
	}
	omitted := len(s) - 2*outputTruncateKeep
	head := s[:outputTruncateKeep]
	tail := s[len(s)-outputTruncateKeep:]
	return fmt.Sprintf("%s\n[...truncated %d characters...]\n%s", head, omitted, tail)
}

// limitedBuffer caps how much output a command can accumulate, so a runaway
// process can't exhaust memory before the symmetric trim runs.
type limitedBuffer struct {
	buf strings.Builder
	max int64
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	original := len(p)
	if int64(b.buf.Len()) >= b.max {
		return original, nil
	}
	remaining := b.max - int64(b.buf.Len())
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if _, err := b.buf.Write(p); err != nil {
		return 0, err
	}
	return original, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
