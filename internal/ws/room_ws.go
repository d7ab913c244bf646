package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chattat-service/internal/observability"
	"chattat-service/internal/repositories"
)

// RoomWSHandler serves the two live feeds of a room: the message feed and
// the membership feed. Both require an active membership.
type RoomWSHandler struct {
	hub     *Hub
	members repositories.RoomMemberRepository
	tracker *ActivityTracker
	secret  string
}

// NewRoomWSHandler constructs a RoomWSHandler.
func NewRoomWSHandler(hub *Hub, members repositories.RoomMemberRepository, tracker *ActivityTracker, secret string) *RoomWSHandler {
	return &RoomWSHandler{hub: hub, members: members, tracker: tracker, secret: secret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Messages upgrades the connection onto the room's message feed.
func (h *RoomWSHandler) Messages(c *gin.Context) {
	h.serve(c, KindRoomMessages)
}

// Members upgrades the connection onto the room's membership feed. Banners
// still alive from recent transitions are replayed on subscribe.
func (h *RoomWSHandler) Members(c *gin.Context) {
	h.serve(c, KindRoomMembers)
}

func (h *RoomWSHandler) serve(c *gin.Context, kind string) {
	roomID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx, span := otel.Tracer("chattat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	claims, err := claimsFromRequest(c, h.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.members.IsActiveMember(ctx, roomID, claims.UserID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      claims.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c),
		IP:          observability.IPFromRequest(c),
		RequestID:   observability.RequestIDFromRequest(c),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	var sub *Subscription
	switch kind {
	case KindRoomMembers:
		sub = h.hub.SubscribeRoomMembers(roomID, conn, info)
		for _, banner := range h.tracker.Active(roomID) {
			if err := sub.Send(banner); err != nil {
				break
			}
		}
	default:
		sub = h.hub.SubscribeRoomMessages(roomID, conn, info)
	}

	observability.IncWSActive(kind)
	publishLifecycleEvent(ctx, kind, roomID, info, "ws_connect", "")

	go func() {
		var closeReason string
		defer func() {
			sub.Close()
			conn.Close()
			observability.DecWSActive(kind)
			publishLifecycleEvent(ctx, kind, roomID, info, "ws_disconnect", closeReason)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					publishLifecycleEvent(ctx, kind, roomID, info, "ws_error", closeReason)
				}
				return
			}
		}
	}()
}
