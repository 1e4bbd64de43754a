package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// Service posts system_notification events of severity "error" to an
// external webhook. Nil-safe: every method is a no-op when the receiver
// is nil, so callers can wire a possibly-nil *Service without a guard at
// every call site.
type Service struct {
	client *Client
	logger *slog.Logger
}

// NewService builds a Service from cfg. Returns nil if notification is
// disabled or no webhook URL is configured.
func NewService(enabled bool, webhookURL string) *Service {
	if !enabled || webhookURL == "" {
		return nil
	}
	return &Service{
		client: NewClient(webhookURL),
		logger: slog.Default().With("component", "notify-service"),
	}
}

// NotifyError posts a best-effort error notification. Fail-open: any
// delivery error is logged, never returned, so a webhook outage can't
// affect the in-process broadcast path that triggered the notification.
func (s *Service) NotifyError(roomID values.RoomID, message string) {
	if s == nil {
		return
	}
	blocks := BuildErrorMessage(roomID, message)
	if err := s.client.PostMessage(context.Background(), blocks, 5*time.Second); err != nil {
		s.logger.Warn("failed to deliver error notification", "room_id", roomID, "error", err)
	}
}
