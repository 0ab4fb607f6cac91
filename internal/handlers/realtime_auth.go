package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"listing-chat-service/internal/middleware"
	"listing-chat-service/internal/realtime"
	"listing-chat-service/internal/repositories"
)

// RealtimeAuthHandler authorizes channel subscriptions for the realtime
// gateway: a caller may subscribe to their own personal channel or to the
// channel of a conversation they participate in.
type RealtimeAuthHandler struct {
	convRepo repositories.ConversationRepository
	issuer   *realtime.TokenIssuer
}

// NewRealtimeAuthHandler builds a RealtimeAuthHandler.
func NewRealtimeAuthHandler(convRepo repositories.ConversationRepository, issuer *realtime.TokenIssuer) *RealtimeAuthHandler {
	return &RealtimeAuthHandler{convRepo: convRepo, issuer: issuer}
}

// Authorize validates the channel name against the caller's identity and
// returns a signed subscribe token for the presenting connection.
func (h *RealtimeAuthHandler) Authorize(c *gin.Context) {
	var req struct {
		SocketID    string `json:"socket_id" binding:"required"`
		ChannelName string `json:"channel_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64(middleware.UserIDKey)

	ref, err := realtime.ParseChannel(req.ChannelName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed channel name"})
		return
	}

	switch ref.Kind {
	case realtime.ChannelUser:
		if ref.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your channel"})
			return
		}
	case realtime.ChannelConversation:
		conv, err := h.convRepo.GetConversation(c.Request.Context(), ref.ConversationID)
		if err != nil {
			if errors.Is(err, repositories.ErrConversationNotFound) {
				c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
			}
			return
		}
		if !conv.HasParticipant(userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
			return
		}
	}

	token, expiresAt, err := h.issuer.IssueSubscribeToken(userID, req.SocketID, req.ChannelName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth": token, "expires_at": expiresAt})
}
