package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

// SendMessageRequest is the POST /api/v1/rooms/:roomId/messages body.
type SendMessageRequest struct {
	SenderID        string   `json:"senderId" binding:"required"`
	SenderName      string   `json:"senderName" binding:"required"`
	Content         string   `json:"content" binding:"required"`
	MentionedAgents []string `json:"mentionedAgents,omitempty"`
	ReplyToID       string   `json:"replyToId,omitempty"`
}

// SendMessageResponse echoes back the id and timestamp assigned to the
// accepted message.
type SendMessageResponse struct {
	ID          string `json:"id"`
	TimestampMS int64  `json:"timestampMs"`
}

// sendMessageHandler handles POST /api/v1/rooms/:roomId/messages. It never
// waits for the room's interpreter to process the message: the handler's
// job is to validate and enqueue, not to synchronously reflect the agent
// responses a user message may trigger — those arrive over the WebSocket
// broadcast instead.
func (s *Server) sendMessageHandler(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId path parameter is required"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgID := values.MessageID(values.NewID("msg"))
	nowMS := time.Now().UnixMilli()

	msg := interpreter.UserMessage{
		ID:              msgID,
		TimestampMS:     nowMS,
		Sender:          values.UserSender(values.UserID(req.SenderID)),
		SenderName:      req.SenderName,
		Content:         req.Content,
		MentionedAgents: req.MentionedAgents,
	}
	if req.ReplyToID != "" {
		reply := values.MessageID(req.ReplyToID)
		msg.ReplyToID = &reply
	}

	s.sender.Send(values.RoomAddress(values.RoomID(roomID)), msg)

	c.JSON(http.StatusAccepted, SendMessageResponse{ID: string(msgID), TimestampMS: nowMS})
}
