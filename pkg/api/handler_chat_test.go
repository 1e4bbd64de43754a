package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

type recordingSender struct {
	mu      sync.Mutex
	target  values.ActorAddress
	message any
}

func (r *recordingSender) Send(target values.ActorAddress, msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
	r.message = msg
}

func newTestServer(sender Sender) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{router: gin.New(), sender: sender}
	s.setupRoutes()
	return s
}

func TestSendMessageHandler_AcceptsValidRequest(t *testing.T) {
	sender := &recordingSender{}
	s := newTestServer(sender)

	body := strings.NewReader(`{"senderId":"alice","senderName":"Alice","content":"hello room"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SendMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.NotZero(t, resp.TimestampMS)

	assert.Equal(t, values.RoomAddress("room-1"), sender.target)
	msg, ok := sender.message.(interpreter.UserMessage)
	require.True(t, ok)
	assert.Equal(t, "hello room", msg.Content)
	assert.Equal(t, values.UserSender("alice"), msg.Sender)
}

func TestSendMessageHandler_RejectsMissingContent(t *testing.T) {
	sender := &recordingSender{}
	s := newTestServer(sender)

	body := strings.NewReader(`{"senderId":"alice","senderName":"Alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageHandler_CarriesReplyToID(t *testing.T) {
	sender := &recordingSender{}
	s := newTestServer(sender)

	body := strings.NewReader(`{"senderId":"alice","senderName":"Alice","content":"following up","replyToId":"msg-42"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/room-1/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	msg := sender.message.(interpreter.UserMessage)
	require.NotNil(t, msg.ReplyToID)
	assert.Equal(t, values.MessageID("msg-42"), *msg.ReplyToID)
}
