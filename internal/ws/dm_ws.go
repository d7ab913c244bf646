package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chattat-service/internal/observability"
)

// DirectWSHandler serves the authenticated user's incoming direct message
// feed. A single feed covers all of the user's conversations.
type DirectWSHandler struct {
	hub    *Hub
	secret string
}

// NewDirectWSHandler constructs a DirectWSHandler.
func NewDirectWSHandler(hub *Hub, secret string) *DirectWSHandler {
	return &DirectWSHandler{hub: hub, secret: secret}
}

// Handle upgrades the connection onto the caller's DM feed.
func (h *DirectWSHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chattat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	claims, err := claimsFromRequest(c, h.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
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
	sub := h.hub.SubscribeDirect(claims.UserID, conn, info)

	observability.IncWSActive(KindDirect)
	publishLifecycleEvent(ctx, KindDirect, claims.UserID, info, "ws_connect", "")

	go func() {
		var closeReason string
		defer func() {
			sub.Close()
			conn.Close()
			observability.DecWSActive(KindDirect)
			publishLifecycleEvent(ctx, KindDirect, claims.UserID, info, "ws_disconnect", closeReason)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					publishLifecycleEvent(ctx, KindDirect, claims.UserID, info, "ws_error", closeReason)
				}
				return
			}
		}
	}()
}
