package config

import (
	"sync"
)

// BuiltinConfig holds the configuration shipped with the binary: seed
// personas plus the masking patterns/groups available to every deployment
// regardless of what chatserver.yaml overrides.
type BuiltinConfig struct {
	Agents          map[string]AgentConfig
	MaskingPatterns map[string]MaskingPattern
	PatternGroups   map[string][]string
	CodeMaskers     []string
}

// MaskingPattern is a single regex-based secret-scrubbing rule.
type MaskingPattern struct {
	Pattern     string
	Replacement string
	Description string
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration
// (thread-safe, lazily initialized).
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		Agents:          initBuiltinAgents(),
		MaskingPatterns: initBuiltinMaskingPatterns(),
		PatternGroups:   initBuiltinPatternGroups(),
		CodeMaskers:     initBuiltinCodeMaskers(),
	}
}

func initBuiltinAgents() map[string]AgentConfig {
	tendency := func(v float64) *float64 { return &v }
	temp := func(v float64) *float64 { return &v }

	return map[string]AgentConfig{
		"generalist": {
			Name:              "Generalist",
			Description:       "A broadly capable collaborator; speaks up often and keeps the room moving.",
			PersonalityTraits: map[string]float64{"curiosity": 0.6, "formality": 0.3},
			ResponseTendency:  tendency(0.6),
			Temperature:       temp(0.7),
		},
		"researcher": {
			Name:              "Researcher",
			Description:       "Pulls in outside references before answering; prefers evidence over speculation.",
			PersonalityTraits: map[string]float64{"curiosity": 0.9, "formality": 0.6},
			ResponseTendency:  tendency(0.4),
			Temperature:       temp(0.5),
			ToolAllowList:     []string{"fetch_reference", "memory_read", "memory_write"},
		},
		"critic": {
			Name:              "Critic",
			Description:       "Reviews proposals for gaps and risk; speaks only when something is wrong.",
			PersonalityTraits: map[string]float64{"formality": 0.8, "skepticism": 0.9},
			ResponseTendency:  tendency(0.25),
			Temperature:       temp(0.3),
		},
	}
}

func initBuiltinMaskingPatterns() map[string]MaskingPattern {
	return map[string]MaskingPattern{
		"api_key": {
			Pattern:     `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			Replacement: `"api_key": "[MASKED_API_KEY]"`,
			Description: "API keys",
		},
		"password": {
			Pattern:     `(?i)(?:password|pwd|pass)["\']?\s*[:=]\s*["\']?([^"\'\s\n]{6,})["\']?`,
			Replacement: `"password": "[MASKED_PASSWORD]"`,
			Description: "Passwords",
		},
		"certificate": {
			Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
			Replacement: `[MASKED_CERTIFICATE]`,
			Description: "SSL/TLS certificates",
		},
		"certificate_authority_data": {
			Pattern:     `(?i)certificate-authority-data:\s*([A-Za-z0-9+/]{20,}={0,2})`,
			Replacement: `certificate-authority-data: [MASKED_CA_CERTIFICATE]`,
			Description: "Kubernetes CA data",
		},
		"token": {
			Pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"token": "[MASKED_TOKEN]"`,
			Description: "Access tokens",
		},
		"email": {
			Pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`,
			Replacement: `[MASKED_EMAIL]`,
			Description: "Email addresses",
		},
		"ssh_key": {
			Pattern:     `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`,
			Replacement: `[MASKED_SSH_KEY]`,
			Description: "SSH public keys",
		},
		"base64_secret": {
			Pattern:     `\b([A-Za-z0-9+/]{20,}={0,2})\b`,
			Replacement: `[MASKED_BASE64_VALUE]`,
			Description: "Base64 values (20+ chars)",
		},
		"base64_short": {
			Pattern:     `(?i)(?:key|secret|token)["\']?\s*[:=]\s*["\']?([A-Za-z0-9+/]{8,19}=?=?)["\']?`,
			Replacement: `[MASKED_BASE64_SHORT]`,
			Description: "Short base64 values (8-19 chars) following a key/secret/token label",
		},
		"private_key": {
			Pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
			Description: "Private keys",
		},
		"secret_key": {
			Pattern:     `(?i)(?:secret[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"secret_key": "[MASKED_SECRET_KEY]"`,
			Description: "Secret keys",
		},
		"aws_access_key": {
			Pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`,
			Replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
			Description: "AWS access keys",
		},
		"aws_secret_key": {
			Pattern:     `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9/+=]{40})["\']?`,
			Replacement: `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`,
			Description: "AWS secret keys",
		},
		"github_token": {
			Pattern:     `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`,
			Replacement: `[MASKED_GITHUB_TOKEN]`,
			Description: "GitHub tokens",
		},
		"slack_token": {
			Pattern:     `(?i)xox[baprs]-[A-Za-z0-9-]{10,72}`,
			Replacement: `[MASKED_SLACK_TOKEN]`,
			Description: "Slack-style webhook/bot tokens",
		},
	}
}

// initBuiltinPatternGroups returns predefined groups of masking patterns.
// Members reference either MaskingPatterns (regex) or CodeMaskers
// (structural parsing, e.g. "kubernetes_secret" — a tool like
// fetch_reference or a workspace file read can surface a Kubernetes
// manifest, which this code masker scrubs more precisely than regex can).
func initBuiltinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":      {"api_key", "password"},
		"secrets":    {"api_key", "password", "token", "private_key", "secret_key"},
		"security":   {"api_key", "password", "token", "certificate", "certificate_authority_data", "email", "ssh_key"},
		"kubernetes": {"kubernetes_secret", "api_key", "password", "certificate_authority_data"},
		"cloud":      {"aws_access_key", "aws_secret_key", "api_key", "token"},
		"all": {
			"base64_secret", "base64_short", "api_key", "password", "certificate", "certificate_authority_data",
			"email", "token", "ssh_key", "private_key", "secret_key",
			"aws_access_key", "aws_secret_key", "github_token", "slack_token",
		},
	}
}

// initBuiltinCodeMaskers returns names of code-based maskers, each matching
// a Masker registered in pkg/masking/service.go.
func initBuiltinCodeMaskers() []string {
	return []string{"kubernetes_secret"}
}
