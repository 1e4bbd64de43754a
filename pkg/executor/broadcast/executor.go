// Package broadcast is the broadcast executor (spec §4.6 "Broadcast").
// It performs BROADCAST_TO_ROOM / BROADCAST_TO_ALL / SEND_TO_CLIENT
// effects by fanning a JSON-framed event envelope out over the
// WebSocket connections registered with it. Unlike pkg/executor/db,
// pkg/executor/llm and pkg/executor/tool, nothing ever replies to an
// actor from here: a broadcast is fire-and-forget, so this package
// depends on no Sender.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codeready-toolchain/agentrooms/pkg/effects"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// Config configures outgoing writes to client connections.
type Config struct {
	WriteTimeout time.Duration
}

// DefaultConfig returns the Config used when one isn't supplied.
func DefaultConfig() Config {
	return Config{WriteTimeout: 10 * time.Second}
}

// envelope is the WebSocket event wire format (spec §6 "events").
type envelope struct {
	Type   string        `json:"type"`
	RoomID values.RoomID `json:"roomId,omitempty"`
	Data   any           `json:"data"`
}

// conn pairs a client's socket with the room it's watching and a write
// mutex: gorilla/websocket forbids concurrent writers on one connection,
// and a client can be written to from both a room fan-out and a direct
// SEND_TO_CLIENT reply.
type conn struct {
	mu     sync.Mutex
	socket *websocket.Conn
	roomID values.RoomID
}

// Notifier is the one method of *notify.Service this package depends on
// (declared locally to avoid an import cycle, same rationale as the
// Sender interfaces in the other executor packages; a nil Notifier means
// external notification is disabled).
type Notifier interface {
	NotifyError(roomID values.RoomID, message string)
}

// Executor fans BroadcastEvents out to registered client connections.
// It implements the runtime's BroadcastExecutor port.
type Executor struct {
	cfg      Config
	notifier Notifier

	mu      sync.RWMutex
	clients map[string]*conn // clientID -> conn
}

// NewExecutor builds an Executor. Clients register with Register as
// their WebSocket connections are accepted and deregister with
// Unregister when the socket closes. notifier receives a copy of every
// system_notification event of severity "error" this executor fans out
// (nil disables external notification).
func NewExecutor(cfg Config, notifier Notifier) *Executor {
	return &Executor{cfg: cfg, notifier: notifier, clients: map[string]*conn{}}
}

// Register associates clientID with socket, scoped to roomID (the room
// the client is currently viewing). socket is owned by the Executor from
// this point: callers must not write to it directly.
func (ex *Executor) Register(clientID string, roomID values.RoomID, socket *websocket.Conn) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.clients[clientID] = &conn{socket: socket, roomID: roomID}
}

// Unregister removes clientID. It does not close the socket; the caller
// owns the connection lifecycle.
func (ex *Executor) Unregister(clientID string) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	delete(ex.clients, clientID)
}

// SetRoom updates the room a registered client is scoped to, e.g. when a
// user switches rooms without reconnecting.
func (ex *Executor) SetRoom(clientID string, roomID values.RoomID) {
	ex.mu.RLock()
	c, ok := ex.clients[clientID]
	ex.mu.RUnlock()
	if !ok {
		return
	}
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// Execute dispatches a BROADCAST_TO_ROOM / BROADCAST_TO_ALL / SEND_TO_CLIENT
// effect. It never blocks on a slow client past Config.WriteTimeout; a
// client whose write fails is dropped so one dead socket can't stall the
// room.
func (ex *Executor) Execute(e effects.Effect) {
	if e.BroadcastEvent == nil {
		slog.Warn("broadcast effect missing BroadcastEvent payload", "kind", e.Kind)
		return
	}
	env := envelope{Type: e.BroadcastEvent.Type, RoomID: e.BroadcastEvent.RoomID, Data: e.BroadcastEvent.Data}
	body, err := json.Marshal(env)
	if err != nil {
		slog.Error("marshal broadcast event", "type", env.Type, "error", err)
		return
	}

	ex.notifyOnError(env)

	switch e.Kind {
	case effects.KindBroadcastToRoom:
		ex.fanOut(body, func(c *conn) bool { return c.roomID == e.RoomID })
	case effects.KindBroadcastToAll:
		ex.fanOut(body, func(*conn) bool { return true })
	case effects.KindSendToClient:
		ex.sendTo(e.ReplyTag, body)
	default:
		slog.Warn("broadcast executor received unhandled kind", "kind", e.Kind)
	}
}

// notifyOnError forwards a system_notification event of severity "error"
// to the external notifier, if one is configured. Any other event type or
// severity is left to the in-process broadcast path alone.
func (ex *Executor) notifyOnError(env envelope) {
	if ex.notifier == nil || env.Type != "system_notification" {
		return
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["severity"] != "error" {
		return
	}
	message, _ := data["message"].(string)
	ex.notifier.NotifyError(env.RoomID, message)
}

func (ex *Executor) fanOut(body []byte, match func(*conn) bool) {
	ex.mu.RLock()
	targets := make([]*conn, 0, len(ex.clients))
	for _, c := range ex.clients {
		if match(c) {
			targets = append(targets, c)
		}
	}
	ex.mu.RUnlock()

	var deadIDs []string

	for _, c := range targets {
		if !ex.write(c, body) {
			deadIDs = append(deadIDs, ex.idOf(c))
		}
	}
	ex.dropDead(deadIDs)
}

func (ex *Executor) sendTo(clientID string, body []byte) {
	ex.mu.RLock()
	c, ok := ex.clients[clientID]
	ex.mu.RUnlock()
	if !ok {
		return
	}
	if !ex.write(c, body) {
		ex.Unregister(clientID)
	}
}

func (ex *Executor) write(c *conn, body []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ex.cfg.WriteTimeout > 0 {
		_ = c.socket.SetWriteDeadline(time.Now().Add(ex.cfg.WriteTimeout))
	}
	if err := c.socket.WriteMessage(websocket.TextMessage, body); err != nil {
		slog.Warn("dropping client after write failure", "error", err)
		return false
	}
	return true
}

// idOf finds the registry key for c. Only used on the dead-client cleanup
// path, where the clients map is small enough that a linear scan under
// the lock is cheaper than keeping a second reverse index live.
func (ex *Executor) idOf(target *conn) string {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	for id, c := range ex.clients {
		if c == target {
			return id
		}
	}
	return ""
}

func (ex *Executor) dropDead(ids []string) {
	if len(ids) == 0 {
		return
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			delete(ex.clients, id)
		}
	}
}
