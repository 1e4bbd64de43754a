package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGitHubConfigDefault(t *testing.T) {
	cfg := resolveGitHubConfig(nil)
	require.NotNil(t, cfg)
	assert.Equal(t, "GITHUB_TOKEN", cfg.TokenEnv)
}

func TestResolveGitHubConfigOverride(t *testing.T) {
	cfg := resolveGitHubConfig(&SystemYAMLConfig{GitHub: &GitHubYAMLConfig{TokenEnv: "CUSTOM_TOKEN"}})
	assert.Equal(t, "CUSTOM_TOKEN", cfg.TokenEnv)
}

func TestResolveReferenceConfigDefault(t *testing.T) {
	cfg := resolveReferenceConfig(nil)
	require.NotNil(t, cfg)
	assert.Greater(t, cfg.CacheTTL, time.Duration(0))
}

func TestResolveReferenceConfigInvalidDurationFallsBackToDefault(t *testing.T) {
	defaultCfg := resolveReferenceConfig(nil)
	cfg := resolveReferenceConfig(&SystemYAMLConfig{Reference: &ReferenceYAMLConfig{CacheTTL: "not-a-duration"}})
	assert.Equal(t, defaultCfg.CacheTTL, cfg.CacheTTL)
}

func TestResolveNotifyConfigDefault(t *testing.T) {
	cfg := resolveNotifyConfig(nil)
	require.NotNil(t, cfg)
	assert.False(t, cfg.Enabled)
}

func TestResolveNotifyConfigEnabled(t *testing.T) {
	enabled := true
	cfg := resolveNotifyConfig(&SystemYAMLConfig{Notify: &NotifyYAMLConfig{Enabled: &enabled, WebhookURL: "https://example.com/hook"}})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://example.com/hook", cfg.WebhookURL)
}

func TestResolveAllowedWSOrigins(t *testing.T) {
	assert.Nil(t, resolveAllowedWSOrigins(nil))
	origins := resolveAllowedWSOrigins(&SystemYAMLConfig{AllowedWSOrigins: []string{"http://localhost:5173"}})
	assert.Equal(t, []string{"http://localhost:5173"}, origins)
}

func TestResolveDashboardURLDefault(t *testing.T) {
	assert.Equal(t, "http://localhost:5173", resolveDashboardURL(nil))
}
