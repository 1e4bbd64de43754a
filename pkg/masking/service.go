package masking

import (
	"log/slog"

	"github.com/codeready-toolchain/agentrooms/pkg/config"
)

// Service scrubs likely secrets out of tool output before it is appended to
// conversation history or persisted. Created once at startup (singleton per
// runtime) and reused by every agent's tool-execution path. Thread-safe and
// stateless aside from its compiled patterns.
type Service struct {
	patterns      map[string]*CompiledPattern // built-in compiled patterns
	patternGroups map[string][]string         // group name -> pattern names
	codeMaskers   map[string]Masker           // registered code-based maskers
	cfg           config.MaskingDefaults
}

// NewService creates a masking service with every built-in pattern compiled
// eagerly. A pattern that fails to compile is logged and skipped rather than
// failing construction — one bad regex shouldn't take down the server.
func NewService(cfg config.MaskingDefaults) *Service {
	s := &Service{
		patterns:      make(map[string]*CompiledPattern),
		patternGroups: config.GetBuiltinConfig().PatternGroups,
		codeMaskers:   make(map[string]Masker),
		cfg:           cfg,
	}

	s.compileBuiltinPatterns()
	s.registerMasker(&KubernetesSecretMasker{})

	slog.Info("masking service initialized",
		"builtin_patterns", len(config.GetBuiltinConfig().MaskingPatterns),
		"compiled_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers),
		"enabled", cfg.Enabled,
		"pattern_group", cfg.PatternGroup)

	return s
}

// Mask scrubs content using the configured pattern group. Fails open: if the
// configured group doesn't resolve to anything (e.g. misconfiguration caught
// too late for validation to have rejected it), the original content is
// returned rather than dropped, since a chat agent losing an entire tool
// result is worse than a rare unmasked value slipping through.
func (s *Service) Mask(content string) string {
	if !s.cfg.Enabled || content == "" {
		return content
	}

	resolved := s.resolvePatternsFromGroup(s.cfg.PatternGroup)
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return content
	}

	return s.applyMasking(content, resolved)
}

// applyMasking runs code-based maskers first (structural awareness), then
// sweeps the result with regex patterns.
func (s *Service) applyMasking(content string, resolved *resolvedPatterns) string {
	masked := content

	for _, maskerName := range resolved.codeMaskerNames {
		masker, ok := s.codeMaskers[maskerName]
		if !ok {
			continue
		}
		if masker.AppliesTo(masked) {
			masked = masker.Mask(masked)
		}
	}

	for _, pattern := range resolved.regexPatterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return masked
}

func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
