// Package tool is the tool executor (spec §4.7 "Tool executor"). It
// dispatches EXECUTE_TOOL / EXECUTE_TOOLS_BATCH by tool name and replies to
// the requesting agent with interpreter.ToolResultMsg; CANCEL_TOOL_EXECUTION
// aborts an in-flight batch by reply tag, same shape as pkg/executor/llm.
package tool

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/executor/db"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// Masker is the one method of *masking.Service this package depends on
// (declared locally to avoid an import cycle, same rationale as Sender;
// a nil Masker means masking is disabled).
type Masker interface {
	Mask(content string) string
}

// Sender is the one method of *runtime.Runtime this package depends on
// (declared locally to avoid an import cycle, same rationale as
// pkg/executor/db.Sender and pkg/executor/llm.Sender).
type Sender interface {
	Send(target values.ActorAddress, msg any)
}

// Config configures workspace sandboxing, bash timeouts, and the reference
// fetcher (spec §6 "Process configuration").
type Config struct {
	WorkspaceRoot           string
	SharedWorkspace         string
	DefaultTimeout          time.Duration
	MaxTimeout              time.Duration
	AllowedReferenceDomains []string
	ReferenceCacheTTL       time.Duration
}

func DefaultConfig() Config {
	return Config{
		WorkspaceRoot:     "./workspaces",
		SharedWorkspace:   "./shared",
		DefaultTimeout:    30 * time.Second,
		MaxTimeout:        120 * time.Second,
		ReferenceCacheTTL: 1 * time.Minute,
	}
}

// Executor adapts the four built-in tools to the runtime's ToolExecutor port.
type Executor struct {
	cfg            Config
	store          *db.Store
	sender         Sender
	masker         Masker
	httpClient     *http.Client
	referenceCache *referenceCache

	mu       sync.Mutex
	inFlight map[string]context.CancelFunc // replyTag -> cancel
}

// NewExecutor builds an Executor. store backs the memory tool's artifact
// reads/writes; sender delivers the eventual ToolResultMsg back to the
// calling agent; masker scrubs likely secrets out of tool output before
// it's sent (nil disables masking).
func NewExecutor(cfg Config, store *db.Store, sender Sender, masker Masker) *Executor {
	ttl := cfg.ReferenceCacheTTL
	if ttl <= 0 {
		ttl = 1 * time.Minute
	}
	return &Executor{
		cfg:            cfg,
		store:          store,
		sender:         sender,
		masker:         masker,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		referenceCache: newReferenceCache(ttl),
		inFlight:       map[string]context.CancelFunc{},
	}
}

// Execute performs one tool effect. EXECUTE_TOOL and EXECUTE_TOOLS_BATCH are
// handled identically: every ToolCall in e.ToolCalls runs, in order, and a
// single ToolResultMsg carries every result back (spec §4.3 onToolResult
// expects one batched reply per reply tag).
func (ex *Executor) Execute(e effects.Effect) {
	switch e.Kind {
	case effects.KindExecuteTool, effects.KindExecuteToolsBatch:
		ex.runBatch(e)
	case effects.KindCancelToolExecution:
		ex.cancel(e.ReplyTag)
	default:
		slog.Warn("tool executor received effect outside its category", "kind", e.Kind)
	}
}

func (ex *Executor) cancel(replyTag string) {
	ex.mu.Lock()
	cancel, ok := ex.inFlight[replyTag]
	ex.mu.Unlock()
	if ok {
		cancel()
	}
}

func (ex *Executor) runBatch(e effects.Effect) {
	if len(e.ToolCalls) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ex.mu.Lock()
	ex.inFlight[e.ReplyTag] = cancel
	ex.mu.Unlock()
	defer func() {
		ex.mu.Lock()
		delete(ex.inFlight, e.ReplyTag)
		ex.mu.Unlock()
		cancel()
	}()

	results := make([]interpreter.ToolExecResult, 0, len(e.ToolCalls))
	for _, call := range e.ToolCalls {
		if ctx.Err() != nil {
			break
		}
		results = append(results, ex.runOne(ctx, call))
	}

	if ctx.Err() != nil {
		// Superseded by a newer RespondToMessage; the agent has already
		// moved on, no reply needed (mirrors pkg/executor/llm's cancellation).
		return
	}

	agentID := e.ToolCalls[0].AgentID
	ex.sender.Send(values.AgentAddress(agentID), interpreter.ToolResultMsg{
		ReplyTag: e.ReplyTag,
		Results:  results,
		NowMS:    nowMS(),
	})
}

func (ex *Executor) runOne(ctx context.Context, call effects.ToolCall) interpreter.ToolExecResult {
	var content string
	var isError bool

	switch call.Name {
	case "bash":
		content, isError = ex.runBash(ctx, call)
	case "str_replace_based_edit_tool":
		content, isError = ex.runEdit(call)
	case "memory":
		content, isError = ex.runMemory(call)
	case "fetch_reference":
		content, isError = ex.runReference(ctx, call)
	default:
		content, isError = "unknown tool: "+call.Name, true
	}

	if ex.masker != nil && !isError {
		content = ex.masker.Mask(content)
	}

	return interpreter.ToolExecResult{CallID: call.ID, Name: call.Name, Content: content, IsError: isError}
}

func nowMS() int64 { return time.Now().UnixMilli() }
