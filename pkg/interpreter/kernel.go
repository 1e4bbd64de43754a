// Package interpreter implements the pure (state, message) -> (state,
// effects) transition functions for the four actor kinds (spec §4.1). No
// I/O, no clocks, no randomness: every timestamp or id a transition needs
// arrives already stamped on the incoming message, supplied by the runtime
// when it enqueues the envelope.
package interpreter

import "github.com/codeready-toolchain/agentrooms/pkg/effects"

// noChange returns s unmodified with no effects — used for invalid
// transitions and discarded stale messages (spec §4.1/§7 error kind 2).
func noChange[S any](s S) (S, []effects.Effect) {
	return s, nil
}

// stateOnly returns a new state with no effects.
func stateOnly[S any](s S) (S, []effects.Effect) {
	return s, nil
}

// withEffects returns a new state paired with the effects to dispatch.
func withEffects[S any](s S, fx ...effects.Effect) (S, []effects.Effect) {
	return s, fx
}
