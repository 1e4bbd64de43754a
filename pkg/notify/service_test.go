package notify

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

func TestService_NilReceiver(t *testing.T) {
	var s *Service

	// Should not panic.
	s.NotifyError(values.RoomID("room-1"), "boom")
}

func TestNewService(t *testing.T) {
	t.Run("returns nil when disabled", func(t *testing.T) {
		svc := NewService(false, "https://hooks.example.com/services/x")
		assert.Nil(t, svc)
	})

	t.Run("returns nil when webhook URL empty", func(t *testing.T) {
		svc := NewService(true, "")
		assert.Nil(t, svc)
	})

	t.Run("returns service when configured", func(t *testing.T) {
		svc := NewService(true, "https://hooks.example.com/services/x")
		assert.NotNil(t, svc)
	})
}

func TestService_NotifyError_PostsToWebhook(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService(true, srv.URL)
	svc.NotifyError(values.RoomID("room-1"), "tool executor out of budget")

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestService_NotifyError_FailsOpenOnWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(true, srv.URL)

	assert.NotPanics(t, func() {
		svc.NotifyError(values.RoomID("room-1"), "boom")
	})
}
