package runtime

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// DefaultTickInterval is the scheduler's polling cadence (spec §4.6).
const DefaultTickInterval = 100 * time.Millisecond

// scheduledEntry is one pending delayed or recurring send. seq breaks ties
// between entries that share an executeAt instant: container/heap is not a
// stable sort, so without it two same-instant entries can pop in either
// order.
type scheduledEntry struct {
	id         string
	target     values.ActorAddress
	message    any
	executeAt  time.Time
	intervalMS int64 // 0 = one-shot
	seq        int64 // insertion order, tie-breaks executeAt
	index      int   // heap.Interface bookkeeping
}

// entryHeap is a min-heap ordered by executeAt, then by insertion order.
type entryHeap []*scheduledEntry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if !h[i].executeAt.Equal(h[j].executeAt) {
		return h[i].executeAt.Before(h[j].executeAt)
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x any) {
	e := x.(*scheduledEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler is the delay/recurrence engine behind SCHEDULE_DELAY,
// SCHEDULE_RECURRING and CANCEL_SCHEDULED (spec §4.6). It wakes on a fixed
// tick interval, pops every due entry, and re-arms recurring ones.
type Scheduler struct {
	mu       sync.Mutex
	heap     entryHeap
	byID     map[string]*scheduledEntry
	interval time.Duration
	rt       *Runtime
	nextSeq  int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewScheduler(rt *Runtime, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		byID:     map[string]*scheduledEntry{},
		interval: interval,
		rt:       rt,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the tick loop in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals the tick loop to exit and waits for it.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log := slog.With("component", "scheduler")
	log.Info("scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.fireDue(now)
		}
	}
}

// Schedule arms spec.Message to be sent to spec.Target after spec.DelayMS,
// recurring every IntervalMS thereafter when non-zero. spec.ID, if empty,
// is assigned by the runtime (callers needing to cancel must supply one).
func (s *Scheduler) Schedule(spec *effects.ScheduleSpec) {
	if spec == nil {
		return
	}
	id := spec.ID
	if id == "" {
		id = values.NewID("sched")
	}
	entry := &scheduledEntry{
		id:         id,
		target:     spec.Target,
		message:    spec.Message,
		executeAt:  time.Now().Add(time.Duration(spec.DelayMS) * time.Millisecond),
		intervalMS: spec.IntervalMS,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.seq = s.nextSeq
	s.nextSeq++
	s.byID[id] = entry
	heap.Push(&s.heap, entry)
}

// Cancel removes a pending or recurring entry by id; a no-op if unknown.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	heap.Remove(&s.heap, entry.index)
}

func (s *Scheduler) fireDue(now time.Time) {
	var due []*scheduledEntry
	s.mu.Lock()
	for s.heap.Len() > 0 && !s.heap[0].executeAt.After(now) {
		e := heap.Pop(&s.heap).(*scheduledEntry)
		due = append(due, e)
		if e.intervalMS > 0 {
			e.executeAt = now.Add(time.Duration(e.intervalMS) * time.Millisecond)
			e.seq = s.nextSeq
			s.nextSeq++
			heap.Push(&s.heap, e)
		} else {
			delete(s.byID, e.id)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.rt.Send(e.target, e.message)
	}
}
