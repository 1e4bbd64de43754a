// Package runtime hosts the actor registry, ready queue, scheduler and
// effect dispatcher — everything impure that the pure interpreters
// (pkg/interpreter) never touch directly (spec §4.6).
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// Config holds the runtime's static tunables, sourced from pkg/config.
type Config struct {
	TickInterval  time.Duration
	ReadyWorkers  int
	Room          interpreter.RoomDeps
	Agent         interpreter.AgentDeps
	Dispatcher    DispatcherConfig

	// SweepInterval is how often the Sweeper passed to New runs, if any.
	// Zero disables the sweep loop unless SweepCron is set.
	SweepInterval time.Duration

	// SweepCron, if non-empty, is a standard 5-field cron expression
	// (parsed by robfig/cron) that overrides SweepInterval: the sweep
	// fires at the cron schedule's computed times instead of on a flat
	// interval. Useful for "once a day at 03:00" retention policies that
	// a flat interval can't express without drifting across restarts.
	SweepCron string
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  DefaultTickInterval,
		ReadyWorkers:  8,
		Room:          interpreter.DefaultRoomDeps(nil),
		Agent:         interpreter.DefaultAgentDeps(),
		Dispatcher:    DefaultDispatcherConfig(),
		SweepInterval: time.Hour,
	}
}

// Sweeper performs a periodic retention pass. pkg/cleanup.Service implements
// this; declared locally (like the executor packages' Sender interfaces) so
// pkg/runtime doesn't need to import pkg/cleanup.
type Sweeper interface {
	Sweep(now time.Time)
}

// Runtime owns every spawned actor, the shared ready queue that guarantees
// single-writer FIFO processing per actor, the delay/recurrence scheduler,
// and the effect dispatcher.
type Runtime struct {
	cfg Config

	reg *registry

	roster   map[values.AgentID]interpreter.RoomMember
	rosterMu sync.RWMutex

	roomDeps  interpreter.RoomDeps
	agentDeps interpreter.AgentDeps

	ready chan values.ActorAddress

	disp  *Dispatcher
	sched *Scheduler

	sweeper Sweeper

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

// New builds a Runtime wired to the given executor ports. Any port may be
// nil (effects of that category are then logged and dropped, useful for
// tests that only exercise a subset of behavior). sweeper may also be nil,
// disabling the retention sweep loop regardless of Config.SweepInterval.
func New(cfg Config, persistence PersistenceExecutor, llm LLMExecutor, tool ToolExecutor, broadcast BroadcastExecutor, sweeper Sweeper) *Runtime {
	rt := &Runtime{
		cfg:       cfg,
		reg:       newRegistry(),
		roster:    map[values.AgentID]interpreter.RoomMember{},
		roomDeps:  cfg.Room,
		agentDeps: cfg.Agent,
		ready:     make(chan values.ActorAddress, 1024),
		stopCh:    make(chan struct{}),
		sweeper:   sweeper,
	}
	rt.disp = NewDispatcher(cfg.Dispatcher, persistence, llm, tool, broadcast)
	rt.sched = NewScheduler(rt, cfg.TickInterval)
	rt.spawnDirector()
	return rt
}

// Start launches the ready-queue workers, the dispatcher's executor pools,
// the scheduler, and the room/project tick loop. Safe to call once; a
// second call is a no-op, mirroring the teacher's worker pool lifecycle.
func (rt *Runtime) Start(ctx context.Context) {
	if rt.started {
		slog.Warn("runtime already started, ignoring duplicate Start call")
		return
	}
	rt.started = true

	rt.disp.Start(ctx)
	rt.sched.Start(ctx)

	n := rt.cfg.ReadyWorkers
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		rt.wg.Add(1)
		go rt.readyWorker(ctx)
	}

	rt.wg.Add(1)
	go rt.tickLoop(ctx)

	if rt.sweeper != nil && (rt.cfg.SweepInterval > 0 || rt.cfg.SweepCron != "") {
		rt.wg.Add(1)
		go rt.sweepLoop(ctx)
	}

	slog.Info("runtime started", "ready_workers", n, "tick_interval", rt.cfg.TickInterval)
}

// Stop signals every goroutine to exit and waits for them to finish.
func (rt *Runtime) Stop() {
	rt.stopOnce.Do(func() { close(rt.stopCh) })
	rt.sched.Stop()
	rt.disp.Stop()
	rt.wg.Wait()
	slog.Info("runtime stopped")
}

// Send enqueues msg for delivery to target. If target is currently idle,
// it is pushed onto the ready queue for a worker to pick up.
func (rt *Runtime) Send(target values.ActorAddress, msg any) {
	a := rt.lookup(target)
	if a == nil {
		slog.Warn("send to unknown actor dropped", "address", target.String())
		return
	}
	if a.enqueue(msg) {
		rt.ready <- target
	}
}

func (rt *Runtime) readyWorker(ctx context.Context) {
	defer rt.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.stopCh:
			return
		case addr := <-rt.ready:
			a := rt.lookup(addr)
			if a == nil {
				continue
			}
			if a.processOne(rt) {
				rt.ready <- addr
			}
		}
	}
}

func (rt *Runtime) tickLoop(ctx context.Context) {
	defer rt.wg.Done()
	interval := rt.cfg.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.stopCh:
			return
		case now := <-ticker.C:
			nowMS := now.UnixMilli()
			for _, addr := range rt.allRoomAddresses() {
				rt.Send(addr, interpreter.RoomTick{NowMS: nowMS})
			}
			for _, p := range rt.allProjects() {
				if p.Phase == values.ProjectIdle || p.Phase == values.ProjectDone {
					continue
				}
				idle := rt.idleAgentsInRoom(p.RoomID)
				rt.Send(values.ProjectAddress(p.ID), interpreter.ProjectTick{IdleMembers: idle, NowMS: nowMS})
			}
		}
	}
}

// sweepLoop drives the retention Sweeper on its own ticker, parallel to how
// tickLoop drives RoomTick/ProjectTick directly rather than through the
// scheduled-effect mechanism: a retention pass has no actor state to update
// and nothing to reply to, so it doesn't go through dispatch at all.
//
// When Config.SweepCron is set it takes priority over SweepInterval: the
// sweep fires at the cron schedule's own computed instants (e.g. "once a
// day at 03:00") instead of a flat recurring interval, which would drift
// to whatever wall-clock minute the process happened to start at.
func (rt *Runtime) sweepLoop(ctx context.Context) {
	defer rt.wg.Done()

	if rt.cfg.SweepCron != "" {
		rt.cronSweepLoop(ctx)
		return
	}

	ticker := time.NewTicker(rt.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.stopCh:
			return
		case now := <-ticker.C:
			rt.sweeper.Sweep(now)
		}
	}
}

// cronSweepLoop is the SweepCron variant of sweepLoop: rather than a fixed
// time.Ticker it recomputes the next fire time from the parsed schedule
// after every sweep, so the sweep always lands on a schedule instant
// regardless of how long the previous sweep took or when the process
// started.
func (rt *Runtime) cronSweepLoop(ctx context.Context) {
	schedule, err := cron.ParseStandard(rt.cfg.SweepCron)
	if err != nil {
		slog.Error("invalid sweep_cron expression, sweep loop disabled", "expr", rt.cfg.SweepCron, "error", err)
		return
	}

	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-rt.stopCh:
			timer.Stop()
			return
		case now := <-timer.C:
			rt.sweeper.Sweep(now)
		}
	}
}

// dispatch routes the effects produced by one transition. Actor-control
// effects are handled in-process (they mutate the registry/scheduler
// directly). Persistence effects are run synchronously, on this goroutine,
// before anything else in the batch is submitted: spec §4.6 "Batching"
// requires that a client never observes a message_added broadcast for a
// message that is not yet durable, and the only way to guarantee that
// ordering across the persistence and broadcast worker pools — which drain
// independently of each other — is to finish the DB write before the
// broadcast for the same transition is even handed to its pool. LLM and
// tool effects, which don't gate a broadcast's durability, still go to
// their own pools for concurrency.
func (rt *Runtime) dispatch(from values.ActorAddress, fx []effects.Effect) {
	for _, e := range fx {
		cat, ok := effects.CategoryOf(e.Kind)
		if !ok {
			slog.Error("effect with unknown kind dropped", "kind", e.Kind, "from", from.String())
			continue
		}
		if cat != effects.CategoryPersistence {
			continue
		}
		rt.disp.executePersistenceSync(e)
	}

	for _, e := range fx {
		cat, ok := effects.CategoryOf(e.Kind)
		if !ok {
			continue
		}
		switch cat {
		case effects.CategoryActorControl:
			rt.handleActorControl(e)
		case effects.CategoryPersistence:
			// already executed synchronously above, in order.
		case effects.CategoryLLM:
			rt.disp.submitLLM(e)
		case effects.CategoryTool:
			rt.disp.submitTool(e)
		case effects.CategoryBroadcast:
			rt.disp.submitBroadcast(e)
		}
	}
}

func (rt *Runtime) handleActorControl(e effects.Effect) {
	switch e.Kind {
	case effects.KindSendToActor:
		rt.Send(e.Target, e.SendMessage)
	case effects.KindScheduleDelay, effects.KindScheduleRecurring:
		rt.sched.Schedule(e.Schedule)
	case effects.KindCancelScheduled:
		rt.sched.Cancel(e.ScheduleID)
	case effects.KindSpawnRoomActor:
		if e.SpawnRoom != nil {
			rt.spawnRoom(*e.SpawnRoom)
		}
	case effects.KindSpawnAgentActor:
		if e.SpawnAgent != nil {
			rt.spawnAgent(*e.SpawnAgent)
		}
	case effects.KindSpawnProjectActor:
		if e.SpawnProject != nil {
			rt.spawnProject(*e.SpawnProject)
		}
	case effects.KindStopActor:
		rt.stopActor(e.Target)
	}
}

// DirectorAddress is exported for callers that need to send the first
// CreateRoom/RegisterAgent messages at process startup.
func (rt *Runtime) DirectorAddress() values.ActorAddress { return values.DirectorAddress }
