package config

import (
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation, fail-fast at the first error.
func (v *Validator) ValidateAll() error {
	if err := v.validateScheduler(); err != nil {
		return fmt.Errorf("scheduler validation failed: %w", err)
	}
	if err := v.validateAgents(); err != nil {
		return fmt.Errorf("agent validation failed: %w", err)
	}
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}
	if err := v.validateReference(); err != nil {
		return fmt.Errorf("reference validation failed: %w", err)
	}
	if err := v.validateNotify(); err != nil {
		return fmt.Errorf("notify validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateScheduler() error {
	s := v.cfg.Scheduler
	if s == nil {
		return fmt.Errorf("scheduler configuration is nil")
	}

	if s.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be positive, got %v", s.TickInterval)
	}
	if s.ReadyWorkers < 1 || s.ReadyWorkers > 64 {
		return fmt.Errorf("scheduler.ready_workers must be between 1 and 64, got %d", s.ReadyWorkers)
	}
	for name, n := range map[string]int{
		"persistence_workers": s.PersistenceWorkers,
		"llm_workers":         s.LLMWorkers,
		"tool_workers":        s.ToolWorkers,
		"broadcast_workers":   s.BroadcastWorkers,
	} {
		if n < 1 || n > 64 {
			return fmt.Errorf("scheduler.%s must be between 1 and 64, got %d", name, n)
		}
	}
	return nil
}

func (v *Validator) validateAgents() error {
	agents := v.cfg.AgentRegistry.GetAll()
	if len(agents) == 0 {
		return fmt.Errorf("at least one agent persona is required")
	}

	for id, agent := range agents {
		if agent.Name == "" {
			return NewValidationError("agent", id, "name", fmt.Errorf("name is required"))
		}
		if agent.ResponseTendency != nil && (*agent.ResponseTendency < 0 || *agent.ResponseTendency > 1) {
			return NewValidationError("agent", id, "response_tendency",
				fmt.Errorf("must be between 0 and 1, got %v", *agent.ResponseTendency))
		}
		if agent.Temperature != nil && (*agent.Temperature < 0 || *agent.Temperature > 2) {
			return NewValidationError("agent", id, "temperature",
				fmt.Errorf("must be between 0 and 2, got %v", *agent.Temperature))
		}
		for trait, val := range agent.PersonalityTraits {
			if val < 0 || val > 1 {
				return NewValidationError("agent", id, "personality_traits."+trait,
					fmt.Errorf("must be between 0 and 1, got %v", val))
			}
		}
	}

	return nil
}

func (v *Validator) validateLLM() error {
	llm := v.cfg.LLM
	if llm == nil {
		return fmt.Errorf("llm configuration is nil")
	}
	if llm.APIKeyEnv == "" {
		return fmt.Errorf("llm.api_key_env is required")
	}
	if llm.BaseURL != "" {
		if _, err := url.Parse(llm.BaseURL); err != nil {
			return fmt.Errorf("llm.base_url is not a valid URL: %w", err)
		}
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return nil
	}

	if d.Temperature < 0 || d.Temperature > 2 {
		return NewValidationError("defaults", "", "temperature",
			fmt.Errorf("must be between 0 and 2, got %v", d.Temperature))
	}
	if d.ResponseTendency < 0 || d.ResponseTendency > 1 {
		return NewValidationError("defaults", "", "response_tendency",
			fmt.Errorf("must be between 0 and 1, got %v", d.ResponseTendency))
	}
	if d.MaxToolCalls != nil && *d.MaxToolCalls < 1 {
		return NewValidationError("defaults", "", "max_tool_calls",
			fmt.Errorf("must be at least 1, got %d", *d.MaxToolCalls))
	}

	if d.Masking != nil && d.Masking.Enabled {
		builtin := GetBuiltinConfig()
		if d.Masking.PatternGroup == "" {
			return NewValidationError("defaults", "", "masking.pattern_group",
				fmt.Errorf("pattern_group is required when masking is enabled"))
		}
		if _, exists := builtin.PatternGroups[d.Masking.PatternGroup]; !exists {
			return NewValidationError("defaults", "", "masking.pattern_group",
				fmt.Errorf("pattern group '%s' not found in built-in groups", d.Masking.PatternGroup))
		}
	}

	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r == nil {
		return fmt.Errorf("retention configuration is nil")
	}
	if r.MessageTTL < 0 {
		return fmt.Errorf("retention.message_ttl must be non-negative, got %v", r.MessageTTL)
	}
	if r.EventTTL < 0 {
		return fmt.Errorf("retention.event_ttl must be non-negative, got %v", r.EventTTL)
	}
	if r.SweepInterval <= 0 && r.SweepCron == "" {
		return fmt.Errorf("retention.sweep_interval must be positive, or retention.sweep_cron must be set")
	}
	if r.SweepCron != "" {
		if _, err := cron.ParseStandard(r.SweepCron); err != nil {
			return fmt.Errorf("retention.sweep_cron is invalid: %w", err)
		}
	}
	return nil
}

func (v *Validator) validateReference() error {
	ref := v.cfg.Reference
	if ref == nil {
		return nil
	}
	if ref.CacheTTL <= 0 {
		return fmt.Errorf("system.reference.cache_ttl must be positive, got %v", ref.CacheTTL)
	}
	for i, domain := range ref.AllowedDomains {
		if domain == "" {
			return fmt.Errorf("system.reference.allowed_domains[%d] is empty", i)
		}
	}
	return nil
}

func (v *Validator) validateNotify() error {
	n := v.cfg.Notify
	if n == nil || !n.Enabled {
		return nil
	}
	if n.WebhookURL == "" {
		return fmt.Errorf("system.notify.webhook_url is required when notify is enabled")
	}
	if _, err := url.Parse(n.WebhookURL); err != nil {
		return fmt.Errorf("system.notify.webhook_url is not a valid URL: %w", err)
	}
	return nil
}
