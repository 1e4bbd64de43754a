package config

import "time"

// GitHubConfig holds resolved GitHub integration configuration, used by the
// fetch_reference tool when following a "github://owner/repo/ref/path" name.
type GitHubConfig struct {
	TokenEnv string // env var name holding a GitHub PAT (default "GITHUB_TOKEN")
}

// ReferenceConfig holds the fetch_reference tool's fetch/cache policy.
type ReferenceConfig struct {
	CacheTTL       time.Duration // how long a fetched reference is cached
	AllowedDomains []string      // empty means "any http(s) host allowed"
}

// NotifyConfig configures the external error-notification webhook.
type NotifyConfig struct {
	Enabled    bool
	WebhookURL string
}
