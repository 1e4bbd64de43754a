package config

// Defaults fills in persona fields a chatserver.yaml agent entry omits.
type Defaults struct {
	Model            string  `yaml:"model,omitempty"`
	Temperature      float64 `yaml:"temperature,omitempty"`
	ResponseTendency float64 `yaml:"response_tendency,omitempty"`

	// MaxToolCalls caps tool-use round trips per agent response cycle.
	MaxToolCalls *int `yaml:"max_tool_calls,omitempty" validate:"omitempty,min=1"`

	// Masking controls secret-scrubbing of tool output before it is
	// appended to conversation history or persisted.
	Masking *MaskingDefaults `yaml:"masking,omitempty"`
}

// MaskingDefaults configures pkg/masking.Service.
type MaskingDefaults struct {
	Enabled      bool   `yaml:"enabled"`
	PatternGroup string `yaml:"pattern_group"`
}

// DefaultDefaults returns the built-in persona defaults used when
// chatserver.yaml doesn't specify one.
func DefaultDefaults() *Defaults {
	return &Defaults{
		Model:            "claude-haiku-4-5-20251001",
		Temperature:      0.7,
		ResponseTendency: 0.5,
		Masking:          &MaskingDefaults{Enabled: true, PatternGroup: "security"},
	}
}
