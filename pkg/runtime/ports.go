package runtime

import "github.com/codeready-toolchain/agentrooms/pkg/effects"

// The four ports below are the seams between the pure core and the outside
// world (spec §4.6/§9 "effects as data"). Each executor package
// (pkg/executor/db, pkg/executor/llm, pkg/executor/tool,
// pkg/executor/broadcast) implements the matching port and is wired into
// the Runtime at startup; the dispatcher never imports an executor package
// directly, only these interfaces.

// PersistenceExecutor performs every DB_* effect.
type PersistenceExecutor interface {
	Execute(e effects.Effect)
}

// LLMExecutor performs CALL_ANTHROPIC / CANCEL_API_CALL.
type LLMExecutor interface {
	Execute(e effects.Effect)
}

// ToolExecutor performs EXECUTE_TOOL(S_BATCH) / CANCEL_TOOL_EXECUTION.
type ToolExecutor interface {
	Execute(e effects.Effect)
}

// BroadcastExecutor performs BROADCAST_TO_ROOM / BROADCAST_TO_ALL / SEND_TO_CLIENT.
type BroadcastExecutor interface {
	Execute(e effects.Effect)
}
