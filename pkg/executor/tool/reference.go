package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
)

// githubBlobTreePattern matches GitHub blob or tree URLs:
// https://github.com/{owner}/{repo}/{blob|tree}/{ref}/{path...}
var githubBlobTreePattern = regexp.MustCompile(`^/([^/]+)/([^/]+)/(blob|tree)/([^/]+)(?:/(.*))?$`)

// convertToRawURL rewrites a github.com blob/tree URL to its raw content
// URL. Non-GitHub or already-raw URLs pass through unchanged.
func convertToRawURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if parsed.Host == "raw.githubusercontent.com" {
		return rawURL
	}
	if parsed.Host != "github.com" && parsed.Host != "www.github.com" {
		return rawURL
	}
	matches := githubBlobTreePattern.FindStringSubmatch(parsed.Path)
	if matches == nil {
		return rawURL
	}
	owner, repo, ref, path := matches[1], matches[2], matches[4], matches[5]
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/refs/heads/%s/%s", owner, repo, ref, path)
}

// resolveGithubScheme converts a "github://owner/repo/ref/path" reference
// name into a raw content URL (spec SPEC_FULL.md §4 "Reference-fetch tool").
func resolveGithubScheme(name string) (string, bool) {
	rest := strings.TrimPrefix(name, "github://")
	if rest == name {
		return "", false
	}
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) < 4 {
		return "", false
	}
	owner, repo, ref, path := parts[0], parts[1], parts[2], parts[3]
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/refs/heads/%s/%s", owner, repo, ref, path), true
}

func validateReferenceURL(rawURL string, allowedDomains []string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid scheme %q: only http and https allowed", parsed.Scheme)
	}
	if len(allowedDomains) == 0 {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range allowedDomains {
		if host == domain || host == "www."+domain {
			return nil
		}
	}
	return fmt.Errorf("domain %q not in allowed list", host)
}

// runReference implements fetch_reference: fetch a plain URL or a
// "github://owner/repo/ref/path" reference, with an in-memory TTL cache
// (spec SPEC_FULL.md §4 "Reference-fetch tool").
func (ex *Executor) runReference(ctx context.Context, call effects.ToolCall) (string, bool) {
	name, _ := call.Input["name"].(string)
	if name == "" {
		return "name is required", true
	}

	target := name
	if rawURL, ok := resolveGithubScheme(name); ok {
		target = rawURL
	} else {
		target = convertToRawURL(name)
	}

	if err := validateReferenceURL(target, ex.cfg.AllowedReferenceDomains); err != nil {
		return err.Error(), true
	}

	if content, ok := ex.referenceCache.Get(target); ok {
		return content, false
	}

	content, err := ex.fetchReference(ctx, target)
	if err != nil {
		return err.Error(), true
	}

	ex.referenceCache.Set(target, content)
	return content, false
}

func (ex *Executor) fetchReference(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := ex.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptureBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}
