package handlers

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"chattat-service/internal/middleware"
	"chattat-service/internal/models"
	"chattat-service/internal/observability"
	"chattat-service/internal/repositories"
	"chattat-service/internal/telemetry"
	"chattat-service/internal/ws"
)

const codeAttempts = 5

// RoomHandler manages room endpoints.
type RoomHandler struct {
	rooms            repositories.RoomRepository
	members          repositories.RoomMemberRepository
	messages         repositories.RoomMessageRepository
	profiles         repositories.ProfileRepository
	snapshots        snapshotSource
	hub              *ws.Hub
	tracker          *ws.ActivityTracker
	audit            *telemetry.AuditEmitter
	messageWindow    int
	charmsPerMessage int
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(rooms repositories.RoomRepository, members repositories.RoomMemberRepository, messages repositories.RoomMessageRepository, profiles repositories.ProfileRepository, snapshots snapshotSource, hub *ws.Hub, tracker *ws.ActivityTracker, audit *telemetry.AuditEmitter, messageWindow, charmsPerMessage int) *RoomHandler {
	return &RoomHandler{
		rooms:            rooms,
		members:          members,
		messages:         messages,
		profiles:         profiles,
		snapshots:        snapshots,
		hub:              hub,
		tracker:          tracker,
		audit:            audit,
		messageWindow:    messageWindow,
		charmsPerMessage: charmsPerMessage,
	}
}

// ListRooms returns the rooms visible to the caller: public rooms, rooms
// they created and rooms they hold a membership row for.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	rooms, err := h.rooms.ListVisible(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CreateRoom creates a public room with a generated unique join code.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room name cannot be empty"})
		return
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		room, err := h.rooms.Create(c.Request.Context(), userID, req.Name, newRoomCode(), true)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
			return
		}
		emitAudit(h.audit, c, "INFO", "Room created")
		c.JSON(http.StatusCreated, room)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to allocate room code"})
}

// JoinByCode resolves an exact join code to a room. A full room reports a
// capacity error and mutates nothing; the actual join happens against the
// resolved room id.
func (h *RoomHandler) JoinByCode(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.GetByCode(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve code"})
		return
	}

	if room.MaxMembers > 0 && room.ActiveMembers >= room.MaxMembers {
		c.JSON(http.StatusConflict, gin.H{"error": "room is full"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// Join activates the caller's membership: create active, flip inactive back
// to active, no-op when already active. A presence event goes out only on an
// actual transition, so concurrent joins from the same user announce once.
func (h *RoomHandler) Join(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	roomID, ok := roomFromPath(c)
	if !ok {
		return
	}

	if _, err := h.rooms.GetByID(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}

	transitioned, err := h.members.Activate(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	if transitioned {
		h.announce(c, roomID, userID, true)
		emitAudit(h.audit, c, "INFO", "Room joined")
	}
	c.JSON(http.StatusOK, gin.H{"joined": true})
}

// Leave deactivates the caller's membership. Leaving a room never joined or
// already left is a no-op that creates nothing.
func (h *RoomHandler) Leave(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	roomID, ok := roomFromPath(c)
	if !ok {
		return
	}

	transitioned, err := h.members.Deactivate(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	if transitioned {
		h.announce(c, roomID, userID, false)
		emitAudit(h.audit, c, "INFO", "Room left")
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

// ListMessages returns the most-recent window oldest-first, sender snapshots
// resolved through one batch lookup over the distinct author ids.
func (h *RoomHandler) ListMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	roomID, ok := roomFromPath(c)
	if !ok {
		return
	}
	if !h.requireMember(c, roomID, userID) {
		return
	}

	msgs, err := h.messages.ListRecent(c.Request.Context(), roomID, h.messageWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	authorIDs := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		authorIDs = append(authorIDs, m.UserID)
	}
	snapshots, err := h.snapshots.Snapshots(c.Request.Context(), distinctIDs(authorIDs))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
		return
	}

	views := make([]models.RoomMessageView, 0, len(msgs))
	for _, m := range msgs {
		view := models.RoomMessageView{RoomMessage: m}
		if snapshot, ok := snapshots[m.UserID]; ok {
			view.Sender = &snapshot
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// PostMessage stores a message, bumps room activity, awards charms and
// broadcasts the raw message on the room's live feed.
func (h *RoomHandler) PostMessage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	roomID, ok := roomFromPath(c)
	if !ok {
		return
	}
	if !h.requireMember(c, roomID, userID) {
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

	msg, err := h.messages.Create(c.Request.Context(), roomID, userID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if err := h.rooms.TouchActivity(c.Request.Context(), roomID); err != nil {
		emitAudit(h.audit, c, "WARN", "Room activity bump failed")
	}
	if err := h.profiles.AwardCharms(c.Request.Context(), userID, h.charmsPerMessage, "room_message", nil); err != nil {
		emitAudit(h.audit, c, "WARN", "Charms award failed for room message")
	} else {
		observability.AddCharmsAwarded(h.charmsPerMessage)
	}

	observability.IncMessageStored("room")
	h.hub.BroadcastRoomMessage(roomID, msg)
	c.JSON(http.StatusCreated, msg)
}

func (h *RoomHandler) requireMember(c *gin.Context, roomID, userID uuid.UUID) bool {
	member, err := h.members.IsActiveMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return false
	}
	return true
}

func (h *RoomHandler) announce(c *gin.Context, roomID, userID uuid.UUID, joined bool) {
	// Usernames are editable, so banners resolve the current profile name
	// rather than trusting the token claim. The claim is the fallback when
	// the lookup fails.
	username := c.GetString("username")
	if snapshots, err := h.snapshots.Snapshots(c.Request.Context(), []uuid.UUID{userID}); err == nil {
		if snapshot, ok := snapshots[userID]; ok {
			username = snapshot.Username
		}
	}

	event := models.PresenceEvent{
		Type:     "presence",
		RoomID:   roomID,
		UserID:   userID,
		Username: username,
		Joined:   joined,
		At:       time.Now(),
	}
	h.tracker.Record(event)
	h.hub.BroadcastPresence(event)
}

func roomFromPath(c *gin.Context) (uuid.UUID, bool) {
	roomID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return uuid.Nil, false
	}
	return roomID, true
}

// newRoomCode generates a shareable 6-digit join code. Uniqueness is owned
// by the rooms.code constraint; collisions retry at the call site.
func newRoomCode() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}
