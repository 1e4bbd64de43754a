// Package notify provides an outbound webhook notifier for system errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goslack "github.com/slack-go/slack"
)

// Client posts Block Kit payloads to a Slack-compatible incoming webhook
// URL. Unlike pkg/slack's Client, this never calls the Slack Web API (no
// token, no channel, no history lookup): an incoming webhook is a single
// fixed POST endpoint that accepts the same block payload shape.
type Client struct {
	webhookURL string
	http       *http.Client
}

// NewClient builds a Client that posts to webhookURL.
func NewClient(webhookURL string) *Client {
	return &Client{webhookURL: webhookURL, http: &http.Client{}}
}

type webhookPayload struct {
	Blocks []goslack.Block `json:"blocks"`
}

// PostMessage sends blocks to the webhook. Fails if the webhook responds
// with a non-2xx status.
func (c *Client) PostMessage(ctx context.Context, blocks []goslack.Block, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(webhookPayload{Blocks: blocks})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}
