package runtime

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
)

// DispatcherConfig sizes the per-category worker pools (spec §4.6: broadcast
// and tool/LLM calls each get their own bounded concurrency so a slow LLM
// call never starves a broadcast or vice versa). PersistenceWorkers is kept
// for config/YAML compatibility but no longer sizes a pool: Runtime.dispatch
// now runs persistence effects synchronously on the calling goroutine so a
// transition's DB write is guaranteed durable before its broadcast is even
// submitted (see Dispatcher.executePersistenceSync).
type DispatcherConfig struct {
	PersistenceWorkers int
	LLMWorkers         int
	ToolWorkers        int
	BroadcastWorkers   int
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		PersistenceWorkers: 4,
		LLMWorkers:         8,
		ToolWorkers:        8,
		BroadcastWorkers:   4,
	}
}

// Dispatcher fans DB/LLM/tool/broadcast effects out to their executor ports
// across fixed-size worker pools, grounded on the teacher's WorkerPool
// (one goroutine group per concern, graceful drain on Stop).
type Dispatcher struct {
	cfg DispatcherConfig

	persistence PersistenceExecutor
	llm         LLMExecutor
	tool        ToolExecutor
	broadcast   BroadcastExecutor

	llmCh       chan effects.Effect
	toolCh      chan effects.Effect
	broadcastCh chan effects.Effect

	g *errgroup.Group
}

func NewDispatcher(cfg DispatcherConfig, persistence PersistenceExecutor, llm LLMExecutor, tool ToolExecutor, broadcast BroadcastExecutor) *Dispatcher {
	return &Dispatcher{
		cfg:         cfg,
		persistence: persistence,
		llm:         llm,
		tool:        tool,
		broadcast:   broadcast,
		llmCh:       make(chan effects.Effect, 256),
		toolCh:      make(chan effects.Effect, 256),
		broadcastCh: make(chan effects.Effect, 256),
	}
}

// Start launches every category's worker pool. The supplied context governs
// shutdown; cancelling it lets in-flight workers drain their channel and
// Stop return. Persistence has no pool of its own: it runs synchronously
// from Runtime.dispatch, so there is nothing to spawn for it here.
func (d *Dispatcher) Start(ctx context.Context) {
	g, _ := errgroup.WithContext(context.Background())
	d.g = g

	spawnPool(g, d.cfg.LLMWorkers, d.llmCh, func(e effects.Effect) {
		if d.llm != nil {
			d.llm.Execute(e)
		}
	})
	spawnPool(g, d.cfg.ToolWorkers, d.toolCh, func(e effects.Effect) {
		if d.tool != nil {
			d.tool.Execute(e)
		}
	})
	spawnPool(g, d.cfg.BroadcastWorkers, d.broadcastCh, func(e effects.Effect) {
		if d.broadcast != nil {
			d.broadcast.Execute(e)
		}
	})
}

// Stop closes every channel and waits for the worker pools to drain.
func (d *Dispatcher) Stop() {
	close(d.llmCh)
	close(d.toolCh)
	close(d.broadcastCh)
	if d.g != nil {
		_ = d.g.Wait()
	}
}

func spawnPool(g *errgroup.Group, n int, ch chan effects.Effect, handle func(effects.Effect)) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			for e := range ch {
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("executor panicked", "kind", e.Kind, "panic", r)
						}
					}()
					handle(e)
				}()
			}
			return nil
		})
	}
}

// submitLLM, submitTool and submitBroadcast enqueue an effect onto its
// category's channel. A full channel applies backpressure onto the caller
// (the dispatch loop blocks) rather than silently discarding effects.
func (d *Dispatcher) submitLLM(e effects.Effect)       { d.llmCh <- e }
func (d *Dispatcher) submitTool(e effects.Effect)      { d.toolCh <- e }
func (d *Dispatcher) submitBroadcast(e effects.Effect) { d.broadcastCh <- e }

// executePersistenceSync runs one DB effect on the calling goroutine instead
// of handing it to the persistence worker pool, and blocks until it
// returns. spec §4.6 "Batching" requires a message's DB_PERSIST_MESSAGE to
// be durable before its paired BROADCAST_TO_ROOM reaches a client; the only
// way to guarantee that ordering across two independently-drained worker
// pools is to not hand the DB write to a pool at all when a broadcast in the
// same transition's effect batch depends on it; see Runtime.dispatch.
func (d *Dispatcher) executePersistenceSync(e effects.Effect) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("persistence executor panicked", "kind", e.Kind, "panic", r)
		}
	}()
	if d.persistence != nil {
		d.persistence.Execute(e)
	}
}
