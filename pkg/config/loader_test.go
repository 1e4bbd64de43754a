package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChatServerYAML(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, "chatserver.yaml"), []byte(content), 0644)
	require.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	configDir := t.TempDir()
	writeChatServerYAML(t, configDir, `
system:
  listen_addr: ":9090"
  data_dir: "./testdata"
agents:
  host:
    name: "Host"
    description: "Keeps the conversation on topic."
    response_tendency: 0.8
llm:
  api_key_env: "ANTHROPIC_API_KEY"
`)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Initialize(context.Background(), configDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "./testdata", cfg.DataDir)
	assert.True(t, cfg.AgentRegistry.Has("host"))
	assert.True(t, cfg.AgentRegistry.Has("generalist"), "built-in personas should still be present")

	stats := cfg.Stats()
	assert.Greater(t, stats.Agents, 1)
}

func TestInitializeConfigNotFound(t *testing.T) {
	_, err := Initialize(context.Background(), "/nonexistent/directory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitializeInvalidYAML(t *testing.T) {
	configDir := t.TempDir()
	writeChatServerYAML(t, configDir, `{{{`)

	_, err := Initialize(context.Background(), configDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitializeValidationFailure(t *testing.T) {
	configDir := t.TempDir()
	writeChatServerYAML(t, configDir, `
agents:
  bad:
    name: "Bad"
    response_tendency: 1.5
`)

	_, err := Initialize(context.Background(), configDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadChatServerYAMLExpandsEnvVars(t *testing.T) {
	configDir := t.TempDir()
	writeChatServerYAML(t, configDir, `
system:
  github:
    token_env: "${MY_TOKEN_ENV_NAME}"
`)
	t.Setenv("MY_TOKEN_ENV_NAME", "GITHUB_TOKEN")

	loader := &configLoader{configDir: configDir}
	yamlCfg, err := loader.loadChatServerYAML()
	require.NoError(t, err)
	require.NotNil(t, yamlCfg.System)
	require.NotNil(t, yamlCfg.System.GitHub)
	assert.Equal(t, "GITHUB_TOKEN", yamlCfg.System.GitHub.TokenEnv)
}

func TestResolveListenAddrDefault(t *testing.T) {
	assert.Equal(t, ":8888", resolveListenAddr(nil))
	assert.Equal(t, ":8888", resolveListenAddr(&SystemYAMLConfig{}))
	assert.Equal(t, ":1234", resolveListenAddr(&SystemYAMLConfig{ListenAddr: ":1234"}))
}

func TestResolveRetentionConfigMergesOverUserPartial(t *testing.T) {
	sys := &SystemYAMLConfig{Retention: &RetentionConfig{MessageTTL: 0, EventTTL: 0}}
	cfg := resolveRetentionConfig(sys)

	// Zero-valued overrides fall back to built-in defaults field by field.
	assert.Equal(t, DefaultRetentionConfig().MessageTTL, cfg.MessageTTL)
	assert.Equal(t, DefaultRetentionConfig().EventTTL, cfg.EventTTL)
	assert.Equal(t, DefaultRetentionConfig().SweepInterval, cfg.SweepInterval)
}

func TestApplyDefaultDefaultsFillsZeroValues(t *testing.T) {
	d := &Defaults{}
	applyDefaultDefaults(d)

	builtin := DefaultDefaults()
	assert.Equal(t, builtin.Model, d.Model)
	assert.Equal(t, builtin.Temperature, d.Temperature)
	assert.Equal(t, builtin.ResponseTendency, d.ResponseTendency)
	assert.Equal(t, builtin.Masking, d.Masking)
}

func TestApplyDefaultDefaultsPreservesUserValues(t *testing.T) {
	d := &Defaults{Model: "custom-model", Temperature: 1.2}
	applyDefaultDefaults(d)

	assert.Equal(t, "custom-model", d.Model)
	assert.Equal(t, 1.2, d.Temperature)
}
