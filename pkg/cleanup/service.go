// Package cleanup enforces message and event retention. Unlike the rest of
// the persistence layer, a retention sweep has no actor state to mutate and
// nothing to reply to, so it isn't routed through effects/interpreters at
// all: the runtime's own tick infrastructure calls Sweep directly on its own
// ticker, the same way it drives RoomTick/ProjectTick outside the effect
// system (pkg/runtime.Runtime.sweepLoop).
package cleanup

import (
	"log/slog"
	"time"
)

// Store is the subset of pkg/executor/db.Store a sweep needs. Declared
// locally so this package doesn't import the executor package.
type Store interface {
	DeleteMessagesOlderThan(cutoffMS int64) (int64, error)
	DeleteEventsOlderThan(cutoffMS int64) (int64, error)
}

// Config holds the two retention windows.
type Config struct {
	MessageTTL time.Duration
	EventTTL   time.Duration
}

// DefaultConfig returns the retention windows used when none are configured.
func DefaultConfig() Config {
	return Config{
		MessageTTL: 30 * 24 * time.Hour,
		EventTTL:   7 * 24 * time.Hour,
	}
}

// Service computes retention cutoffs and deletes rows past them.
type Service struct {
	cfg   Config
	store Store
}

// NewService builds a Service backed by store.
func NewService(cfg Config, store Store) *Service {
	return &Service{cfg: cfg, store: store}
}

// Sweep runs one retention pass as of now. It is safe to call concurrently
// with itself and with normal read/write traffic on store; deletes are
// idempotent.
func (s *Service) Sweep(now time.Time) {
	if s.cfg.MessageTTL > 0 {
		cutoff := now.Add(-s.cfg.MessageTTL).UnixMilli()
		n, err := s.store.DeleteMessagesOlderThan(cutoff)
		if err != nil {
			slog.Error("retention: delete old messages failed", "error", err)
		} else if n > 0 {
			slog.Info("retention: deleted old messages", "count", n)
		}
	}

	if s.cfg.EventTTL > 0 {
		cutoff := now.Add(-s.cfg.EventTTL).UnixMilli()
		n, err := s.store.DeleteEventsOlderThan(cutoff)
		if err != nil {
			slog.Error("retention: delete old events failed", "error", err)
		} else if n > 0 {
			slog.Info("retention: deleted old events", "count", n)
		}
	}
}
