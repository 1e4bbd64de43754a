// Package config loads and validates the chat server's configuration:
// agent personas, LLM/scheduler/retention/masking settings, and the
// system-level integrations (GitHub, reference fetching, external
// notification).
package config

import (
	"fmt"
	"sync"
)

// AgentConfig is a persona definition as it appears in chatserver.yaml. It
// is converted to values.AgentConfig once an agent id is assigned (either
// the YAML key or a generated one).
type AgentConfig struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`

	// PersonalityTraits maps a trait name to a value in [0,1], folded into
	// the system prompt by the LLM executor.
	PersonalityTraits map[string]float64 `yaml:"personality_traits,omitempty"`

	// ResponseTendency in [0,1] drives the room's responder-selection.
	ResponseTendency *float64 `yaml:"response_tendency,omitempty" validate:"omitempty,min=0,max=1"`

	Temperature *float64 `yaml:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	Model       string   `yaml:"model,omitempty"`

	// ToolAllowList is nil for "all built-in tools allowed".
	ToolAllowList []string `yaml:"tool_allow_list,omitempty"`
}

// AgentRegistry stores persona configurations in memory with thread-safe access.
type AgentRegistry struct {
	agents map[string]*AgentConfig
	mu     sync.RWMutex
}

// NewAgentRegistry creates a new agent registry. Values are defensively
// copied so callers can't mutate the registry's internals afterward.
func NewAgentRegistry(agents map[string]*AgentConfig) *AgentRegistry {
	copied := make(map[string]*AgentConfig, len(agents))
	for k, v := range agents {
		copied[k] = v
	}
	return &AgentRegistry{agents: copied}
}

// Get retrieves a persona by id (thread-safe).
func (r *AgentRegistry) Get(id string) (*AgentConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return agent, nil
}

// GetAll returns every persona (thread-safe, returns a copy).
func (r *AgentRegistry) GetAll() map[string]*AgentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*AgentConfig, len(r.agents))
	for k, v := range r.agents {
		result[k] = v
	}
	return result
}

// Has reports whether id exists in the registry (thread-safe).
func (r *AgentRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.agents[id]
	return exists
}

// Len returns the number of personas in the registry (thread-safe).
func (r *AgentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
