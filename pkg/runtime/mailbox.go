package runtime

import (
	"sync"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// actor is the runtime's uniform view of a spawned Room/Agent/Project/
// Director instance: something with a mailbox that can be told to drain one
// message. Each concrete kind is a mailbox[S] closing over its own state
// type and interpreter function (spec §4.6 "single writer per actor").
type actor interface {
	address() values.ActorAddress
	enqueue(msg any) (wasIdle bool)
	processOne(rt *Runtime) (hasMore bool)
}

// mailbox holds one actor's state and its pending message queue. At most
// one goroutine ever calls processOne concurrently for a given mailbox —
// the Runtime's ready queue guarantees this (spec §4.6).
type mailbox[S any] struct {
	mu         sync.Mutex
	addr       values.ActorAddress
	state      S
	queue      []any
	processing bool
	interpret  func(*Runtime, S, any) (S, []effects.Effect)
}

func newMailbox[S any](addr values.ActorAddress, initial S, interpret func(*Runtime, S, any) (S, []effects.Effect)) *mailbox[S] {
	return &mailbox[S]{addr: addr, state: initial, interpret: interpret}
}

func (m *mailbox[S]) address() values.ActorAddress { return m.addr }

// enqueue appends msg to the tail of the queue, preserving FIFO order. It
// reports whether the mailbox was previously idle, i.e. whether the caller
// must push this actor onto the runtime's ready queue.
func (m *mailbox[S]) enqueue(msg any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, msg)
	if m.processing {
		return false
	}
	m.processing = true
	return true
}

// processOne pops and interprets exactly one message, then reports whether
// further messages remain queued (the caller re-arms the ready queue if so;
// otherwise this mailbox goes idle until the next enqueue).
func (m *mailbox[S]) processOne(rt *Runtime) bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.processing = false
		m.mu.Unlock()
		return false
	}
	msg := m.queue[0]
	m.queue = m.queue[1:]
	state := m.state
	m.mu.Unlock()

	newState, fx := m.interpret(rt, state, msg)

	m.mu.Lock()
	m.state = newState
	more := len(m.queue) > 0
	if !more {
		m.processing = false
	}
	m.mu.Unlock()

	rt.dispatch(m.addr, fx)
	return more
}

// snapshot returns a copy of the mailbox's current state, safe to read
// without disturbing the single-writer invariant (used by status queries
// and by the scheduler when building per-tick roster snapshots).
func (m *mailbox[S]) snapshot() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
