package config

import "time"

// SchedulerConfig controls the runtime's tick cadence and worker pool
// sizing — the analog of the session-polling queue this is adapted from,
// generalized from "how many sessions to poll at once" to "how many ready
// actors/effects to process at once".
type SchedulerConfig struct {
	// TickInterval drives RoomTick/ProjectTick.
	TickInterval time.Duration `yaml:"tick_interval"`

	// ReadyWorkers is the number of goroutines draining the shared ready queue.
	ReadyWorkers int `yaml:"ready_workers"`

	// PersistenceWorkers/LLMWorkers/ToolWorkers/BroadcastWorkers size each
	// executor's dedicated worker pool (pkg/runtime.DispatcherConfig).
	PersistenceWorkers int `yaml:"persistence_workers"`
	LLMWorkers         int `yaml:"llm_workers"`
	ToolWorkers        int `yaml:"tool_workers"`
	BroadcastWorkers   int `yaml:"broadcast_workers"`
}

// DefaultSchedulerConfig returns the built-in scheduler/worker-pool defaults.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		TickInterval:       100 * time.Millisecond,
		ReadyWorkers:       8,
		PersistenceWorkers: 4,
		LLMWorkers:         8,
		ToolWorkers:        8,
		BroadcastWorkers:   4,
	}
}
