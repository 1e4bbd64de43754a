package config

import "time"

// RetentionConfig controls how long messages and event-log rows survive
// before the retention sweep (pkg/cleanup, driven by pkg/runtime's sweep
// loop) deletes them.
type RetentionConfig struct {
	MessageTTL time.Duration `yaml:"message_ttl"`
	EventTTL   time.Duration `yaml:"event_ttl"`

	// SweepInterval is how often the sweep runs.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// SweepCron, if set, is a standard 5-field cron expression that overrides
	// SweepInterval: the sweep fires at the schedule's computed instants
	// instead of on a flat recurring interval. Takes priority over
	// SweepInterval when both are set.
	SweepCron string `yaml:"sweep_cron,omitempty"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		MessageTTL:    30 * 24 * time.Hour,
		EventTTL:      7 * 24 * time.Hour,
		SweepInterval: 1 * time.Hour,
	}
}
