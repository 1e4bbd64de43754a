package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ChatServerYAMLConfig represents the complete chatserver.yaml file structure.
type ChatServerYAMLConfig struct {
	System    *SystemYAMLConfig      `yaml:"system"`
	Agents    map[string]AgentConfig `yaml:"agents"`
	Defaults  *Defaults              `yaml:"defaults"`
	Scheduler *SchedulerConfig       `yaml:"scheduler"`
	LLM       *LLMConfig             `yaml:"llm"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	ListenAddr       string              `yaml:"listen_addr"`
	DataDir          string              `yaml:"data_dir"`
	DashboardURL     string              `yaml:"dashboard_url"`
	AllowedWSOrigins []string            `yaml:"allowed_ws_origins"`
	GitHub           *GitHubYAMLConfig   `yaml:"github"`
	Reference        *ReferenceYAMLConfig `yaml:"reference"`
	Notify           *NotifyYAMLConfig   `yaml:"notify"`
	Retention        *RetentionConfig    `yaml:"retention"`
}

// GitHubYAMLConfig holds GitHub integration settings from YAML.
type GitHubYAMLConfig struct {
	TokenEnv string `yaml:"token_env,omitempty"` // defaults to "GITHUB_TOKEN" if omitted
}

// ReferenceYAMLConfig holds fetch_reference tool settings from YAML.
type ReferenceYAMLConfig struct {
	CacheTTL       string   `yaml:"cache_ttl,omitempty"` // parsed to time.Duration
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`
}

// NotifyYAMLConfig holds external error-notification settings from YAML.
type NotifyYAMLConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load chatserver.yaml
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined personas
//  5. Build the persona registry
//  6. Apply default values (LLM, scheduler, retention, system)
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized successfully", "agents", stats.Agents)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadChatServerYAML()
	if err != nil {
		return nil, NewLoadError("chatserver.yaml", err)
	}

	builtin := GetBuiltinConfig()
	agents := mergeAgents(builtin.Agents, yamlCfg.Agents)
	agentRegistry := NewAgentRegistry(agents)

	defaults := yamlCfg.Defaults
	if defaults == nil {
		defaults = DefaultDefaults()
	} else {
		applyDefaultDefaults(defaults)
	}

	llmCfg := DefaultLLMConfig()
	if yamlCfg.LLM != nil {
		if err := mergo.Merge(llmCfg, yamlCfg.LLM, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge llm config: %w", err)
		}
	}

	schedulerCfg := DefaultSchedulerConfig()
	if yamlCfg.Scheduler != nil {
		if err := mergo.Merge(schedulerCfg, yamlCfg.Scheduler, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge scheduler config: %w", err)
		}
	}

	return &Config{
		configDir:        configDir,
		ListenAddr:       resolveListenAddr(yamlCfg.System),
		DataDir:          resolveDataDir(yamlCfg.System),
		DashboardURL:     resolveDashboardURL(yamlCfg.System),
		AllowedWSOrigins: resolveAllowedWSOrigins(yamlCfg.System),
		GitHub:           resolveGitHubConfig(yamlCfg.System),
		Reference:        resolveReferenceConfig(yamlCfg.System),
		Notify:           resolveNotifyConfig(yamlCfg.System),
		Retention:        resolveRetentionConfig(yamlCfg.System),
		Scheduler:        schedulerCfg,
		LLM:              llmCfg,
		Defaults:         defaults,
		AgentRegistry:    agentRegistry,
	}, nil
}

// applyDefaultDefaults fills zero-valued fields of a user-supplied Defaults
// from the built-in defaults, field by field (mergo's struct merge would
// treat 0.0/"" ambiguously against an explicit zero override, so this
// follows the same explicit fallback style as the teacher's resolve* helpers).
func applyDefaultDefaults(d *Defaults) {
	builtin := DefaultDefaults()
	if d.Model == "" {
		d.Model = builtin.Model
	}
	if d.Temperature == 0 {
		d.Temperature = builtin.Temperature
	}
	if d.ResponseTendency == 0 {
		d.ResponseTendency = builtin.ResponseTendency
	}
	if d.Masking == nil {
		d.Masking = builtin.Masking
	}
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadChatServerYAML() (*ChatServerYAMLConfig, error) {
	var cfg ChatServerYAMLConfig
	cfg.Agents = make(map[string]AgentConfig)

	if err := l.loadYAML("chatserver.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func resolveListenAddr(sys *SystemYAMLConfig) string {
	if sys != nil && sys.ListenAddr != "" {
		return sys.ListenAddr
	}
	return ":8888"
}

func resolveDataDir(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DataDir != "" {
		return sys.DataDir
	}
	if dir := os.Getenv("CHATSERVER_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

func resolveGitHubConfig(sys *SystemYAMLConfig) *GitHubConfig {
	cfg := &GitHubConfig{TokenEnv: "GITHUB_TOKEN"}
	if sys != nil && sys.GitHub != nil && sys.GitHub.TokenEnv != "" {
		cfg.TokenEnv = sys.GitHub.TokenEnv
	}
	return cfg
}

func resolveReferenceConfig(sys *SystemYAMLConfig) *ReferenceConfig {
	cfg := &ReferenceConfig{CacheTTL: 1 * time.Minute}

	if sys == nil || sys.Reference == nil {
		return cfg
	}

	ref := sys.Reference
	if ref.CacheTTL != "" {
		if d, err := time.ParseDuration(ref.CacheTTL); err == nil {
			cfg.CacheTTL = d
		} else {
			slog.Warn("invalid cache_ttl in reference config, using default",
				"value", ref.CacheTTL, "default", cfg.CacheTTL, "error", err)
		}
	}
	if len(ref.AllowedDomains) > 0 {
		cfg.AllowedDomains = ref.AllowedDomains
	}

	return cfg
}

func resolveNotifyConfig(sys *SystemYAMLConfig) *NotifyConfig {
	cfg := &NotifyConfig{}
	if sys == nil || sys.Notify == nil {
		return cfg
	}

	n := sys.Notify
	if n.Enabled != nil {
		cfg.Enabled = *n.Enabled
	}
	cfg.WebhookURL = n.WebhookURL
	return cfg
}

func resolveDashboardURL(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DashboardURL != "" {
		return sys.DashboardURL
	}
	return "http://localhost:5173"
}

func resolveRetentionConfig(sys *SystemYAMLConfig) *RetentionConfig {
	cfg := DefaultRetentionConfig()

	if sys == nil || sys.Retention == nil {
		return cfg
	}

	r := sys.Retention
	if r.MessageTTL > 0 {
		cfg.MessageTTL = r.MessageTTL
	}
	if r.EventTTL > 0 {
		cfg.EventTTL = r.EventTTL
	}
	if r.SweepInterval > 0 {
		cfg.SweepInterval = r.SweepInterval
	}
	if r.SweepCron != "" {
		cfg.SweepCron = r.SweepCron
	}

	return cfg
}

func resolveAllowedWSOrigins(sys *SystemYAMLConfig) []string {
	if sys != nil {
		return sys.AllowedWSOrigins
	}
	return nil
}
