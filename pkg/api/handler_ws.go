package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// wsHandler handles GET /api/v1/ws?roomId=.... The connection is
// server -> client only (spec §6 event envelope); any frame a client sends
// is read and discarded, just enough to notice a closed socket and to
// respond to gorilla/websocket's built-in ping/pong keepalive.
func (s *Server) wsHandler(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.NewString()
	roomID := values.RoomID(c.Query("roomId"))
	s.broadcastExc.Register(clientID, roomID, conn)
	defer s.broadcastExc.Unregister(clientID)
	defer conn.Close()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "client_id", clientID, "error", err)
			}
			return
		}
	}
}
