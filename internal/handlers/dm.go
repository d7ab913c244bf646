package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chattat-service/internal/middleware"
	"chattat-service/internal/observability"
	"chattat-service/internal/repositories"
	"chattat-service/internal/telemetry"
	"chattat-service/internal/ws"
)

// DMHandler manages direct message endpoints. Threads exist only between
// friends.
type DMHandler struct {
	messages         repositories.DirectMessageRepository
	connections      repositories.ConnectionRepository
	profiles         repositories.ProfileRepository
	hub              *ws.Hub
	audit            *telemetry.AuditEmitter
	charmsPerMessage int
}

// NewDMHandler constructs a DMHandler.
func NewDMHandler(messages repositories.DirectMessageRepository, connections repositories.ConnectionRepository, profiles repositories.ProfileRepository, hub *ws.Hub, audit *telemetry.AuditEmitter, charmsPerMessage int) *DMHandler {
	return &DMHandler{
		messages:         messages,
		connections:      connections,
		profiles:         profiles,
		hub:              hub,
		audit:            audit,
		charmsPerMessage: charmsPerMessage,
	}
}

// ListMessages returns the thread with a friend oldest-first. Loading the
// thread marks every unread message from that friend as read; re-reading
// touches nothing.
func (h *DMHandler) ListMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	friendID, ok := h.friendFromPath(c, userID)
	if !ok {
		return
	}

	msgs, err := h.messages.ListBetween(c.Request.Context(), userID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	if _, err := h.messages.MarkRead(c.Request.Context(), userID, friendID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message, awards charms to the sender and pushes the
// raw message on the receiver's DM feed. Whitespace-only content is a no-op
// that creates no row.
func (h *DMHandler) PostMessage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	friendID, ok := h.friendFromPath(c, userID)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.Status(http.StatusNoContent)
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), userID, friendID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if err := h.profiles.AwardCharms(c.Request.Context(), userID, h.charmsPerMessage, "direct_message", nil); err != nil {
		emitAudit(h.audit, c, "WARN", "Charms award failed for direct message")
	} else {
		observability.AddCharmsAwarded(h.charmsPerMessage)
	}

	observability.IncMessageStored("dm")
	h.hub.PushDirectMessage(msg)
	c.JSON(http.StatusCreated, msg)
}

// friendFromPath parses and authorizes the :friend_id path segment. The
// thread is reachable only while the friendship is accepted.
func (h *DMHandler) friendFromPath(c *gin.Context, userID uuid.UUID) (uuid.UUID, bool) {
	friendID, err := uuid.Parse(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return uuid.Nil, false
	}
	if friendID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return uuid.Nil, false
	}

	friends, err := h.connections.AreFriends(c.Request.Context(), userID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify friendship"})
		return uuid.Nil, false
	}
	if !friends {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return uuid.Nil, false
	}
	return friendID, true
}
