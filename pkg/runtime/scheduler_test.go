package runtime

import (
	"container/heap"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// TestEntryHeap_SameInstantPopsInInsertionOrder pins down spec §8's boundary
// case: two entries scheduled for the identical executeAt must be delivered
// in insertion order. container/heap is not a stable sort on its own, so
// this only holds because entryHeap.Less tie-breaks on seq.
func TestEntryHeap_SameInstantPopsInInsertionOrder(t *testing.T) {
	at := time.Now()
	h := &entryHeap{}
	heap.Init(h)

	ids := []string{"first", "second", "third", "fourth"}
	for i, id := range ids {
		heap.Push(h, &scheduledEntry{id: id, executeAt: at, seq: int64(i)})
	}

	var popped []string
	for h.Len() > 0 {
		e := heap.Pop(h).(*scheduledEntry)
		popped = append(popped, e.id)
	}

	assert.Equal(t, ids, popped)
}

// TestEntryHeap_EarlierInstantStillWinsOverSeq makes sure the seq tie-break
// only applies when executeAt is equal; an earlier executeAt must still pop
// first regardless of insertion order.
func TestEntryHeap_EarlierInstantStillWinsOverSeq(t *testing.T) {
	now := time.Now()
	h := &entryHeap{}
	heap.Init(h)

	heap.Push(h, &scheduledEntry{id: "later", executeAt: now.Add(time.Hour), seq: 0})
	heap.Push(h, &scheduledEntry{id: "earlier", executeAt: now, seq: 1})

	first := heap.Pop(h).(*scheduledEntry)
	assert.Equal(t, "earlier", first.id)
}

// TestScheduler_ScheduleAssignsIncreasingSeq confirms Schedule itself wires
// up the tie-break counter, not just entryHeap in isolation: entries pushed
// through real Schedule calls carry strictly increasing seq values in call
// order, so same-instant entries still resolve to FIFO via entryHeap.Less.
func TestScheduler_ScheduleAssignsIncreasingSeq(t *testing.T) {
	rt := newTestRuntime(newRecordingLLM())
	s := NewScheduler(rt, time.Millisecond)

	s.Schedule(&effects.ScheduleSpec{ID: "a", Target: values.RoomAddress("room-1"), DelayMS: 5})
	s.Schedule(&effects.ScheduleSpec{ID: "b", Target: values.RoomAddress("room-1"), DelayMS: 5})
	s.Schedule(&effects.ScheduleSpec{ID: "c", Target: values.RoomAddress("room-1"), DelayMS: 5})

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Less(t, s.byID["a"].seq, s.byID["b"].seq)
	require.Less(t, s.byID["b"].seq, s.byID["c"].seq)
}
