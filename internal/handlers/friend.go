package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chattat-service/internal/middleware"
	"chattat-service/internal/models"
	"chattat-service/internal/repositories"
	"chattat-service/internal/telemetry"
)

// FriendHandler manages friendship endpoints.
type FriendHandler struct {
	connections repositories.ConnectionRepository
	profiles    repositories.ProfileRepository
	snapshots   snapshotSource
	audit       *telemetry.AuditEmitter
}

// NewFriendHandler constructs a FriendHandler.
func NewFriendHandler(connections repositories.ConnectionRepository, profiles repositories.ProfileRepository, snapshots snapshotSource, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{
		connections: connections,
		profiles:    profiles,
		snapshots:   snapshots,
		audit:       audit,
	}
}

// ListFriends returns accepted connections in both directions, enriched
// with the friend's profile snapshot.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	friendIDs, err := h.connections.ListFriendIDs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}

	snapshots, err := h.snapshots.Snapshots(c.Request.Context(), friendIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friend profiles"})
		return
	}

	friends := make([]models.ProfileSnapshot, 0, len(friendIDs))
	for _, id := range friendIDs {
		if snapshot, ok := snapshots[id]; ok {
			friends = append(friends, snapshot)
		}
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListRequests returns incoming pending requests with the sender resolved.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	pending, err := h.connections.ListIncomingPending(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}

	senderIDs := make([]uuid.UUID, 0, len(pending))
	for _, conn := range pending {
		senderIDs = append(senderIDs, conn.UserID)
	}
	snapshots, err := h.snapshots.Snapshots(c.Request.Context(), distinctIDs(senderIDs))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
		return
	}

	requests := make([]models.FriendRequestView, 0, len(pending))
	for _, conn := range pending {
		requests = append(requests, models.FriendRequestView{
			ID:        conn.ID,
			Sender:    snapshots[conn.UserID],
			CreatedAt: conn.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// CreateRequest sends a friend request. Any existing edge between the two
// users, in either direction and whatever its status, blocks a new one.
func (h *FriendHandler) CreateRequest(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		FriendID uuid.UUID `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FriendID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot friend yourself"})
		return
	}

	if _, err := h.profiles.GetByUserID(c.Request.Context(), req.FriendID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify profile"})
		return
	}

	conn, err := h.connections.Create(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		if errors.Is(err, repositories.ErrConnectionExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "connection already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}

	emitAudit(h.audit, c, "INFO", "Friend request sent")
	c.JSON(http.StatusCreated, conn)
}

// Accept transitions a pending request to accepted. Recipient only.
func (h *FriendHandler) Accept(c *gin.Context) {
	h.decide(c, models.ConnectionAccepted)
}

// Reject transitions a pending request to rejected, which is terminal.
func (h *FriendHandler) Reject(c *gin.Context) {
	h.decide(c, models.ConnectionRejected)
}

func (h *FriendHandler) decide(c *gin.Context, status string) {
	userID, _ := middleware.GetUserID(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	conn, err := h.connections.Get(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrConnectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return
	}
	if conn.FriendID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the recipient can decide"})
		return
	}

	if err := h.connections.UpdateStatus(c.Request.Context(), requestID, status); err != nil {
		if errors.Is(err, repositories.ErrConnectionNotFound) {
			// Already decided; pending is the only transition source.
			c.JSON(http.StatusConflict, gin.H{"error": "request already decided"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update request"})
		return
	}

	emitAudit(h.audit, c, "INFO", "Friend request "+status)
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Unfriend deletes the edge in both directions. Removing a missing edge is
// a no-op.
func (h *FriendHandler) Unfriend(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	friendID, err := uuid.Parse(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return
	}

	if err := h.connections.DeleteBetween(c.Request.Context(), userID, friendID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove friend"})
		return
	}

	emitAudit(h.audit, c, "INFO", "Friend removed")
	c.Status(http.StatusNoContent)
}
