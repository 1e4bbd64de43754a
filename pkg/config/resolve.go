package config

import (
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// ResolveAgent converts persona id's raw AgentConfig into the interpreter's
// values.AgentConfig, filling in any field the persona itself left unset
// from Defaults.
func (c *Config) ResolveAgent(id string) (values.AgentConfig, error) {
	raw, err := c.AgentRegistry.Get(id)
	if err != nil {
		return values.AgentConfig{}, err
	}

	out := values.AgentConfig{
		ID:                values.AgentID(id),
		Name:              raw.Name,
		Description:       raw.Description,
		PersonalityTraits: raw.PersonalityTraits,
		Model:             raw.Model,
		ToolAllowList:     raw.ToolAllowList,
	}

	if raw.ResponseTendency != nil {
		out.ResponseTendency = *raw.ResponseTendency
	} else {
		out.ResponseTendency = c.Defaults.ResponseTendency
	}

	if raw.Temperature != nil {
		out.Temperature = *raw.Temperature
	} else {
		out.Temperature = c.Defaults.Temperature
	}

	if out.Model == "" {
		out.Model = c.Defaults.Model
	}

	return out, nil
}

// MaxToolCalls returns the configured per-response tool-call ceiling,
// falling back to values.DefaultMaxToolCalls when unset.
func (c *Config) MaxToolCalls() int {
	if c.Defaults.MaxToolCalls != nil {
		return *c.Defaults.MaxToolCalls
	}
	return values.DefaultMaxToolCalls
}
