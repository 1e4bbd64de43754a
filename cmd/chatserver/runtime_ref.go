package main

import (
	"github.com/codeready-toolchain/agentrooms/pkg/runtime"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// runtimeRef breaks the construction cycle between the executors and
// *runtime.Runtime: every executor needs a Sender at construction time, but
// the only Sender is the Runtime itself, which is constructed from the
// executors. A runtimeRef is built empty, handed to every executor, and
// its rt field is set once runtime.New returns — by the time any effect
// runs (after Start), rt is always populated.
type runtimeRef struct {
	rt *runtime.Runtime
}

func (r *runtimeRef) Send(target values.ActorAddress, msg any) {
	if r.rt == nil {
		return
	}
	r.rt.Send(target, msg)
}
