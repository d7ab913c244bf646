package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chattat-service/internal/models"
	"chattat-service/internal/observability"
)

// Feed kinds. Room message and room membership feeds are independent
// channels; events on one never order against the other.
const (
	KindRoomMessages = "room_messages"
	KindRoomMembers  = "room_members"
	KindDirect       = "dm"
)

type feedKey struct {
	kind string
	id   uuid.UUID
}

// client wraps a connection with a write lock; gorilla/websocket forbids
// concurrent writers, and broadcasts come from arbitrary request goroutines.
type client struct {
	conn *websocket.Conn
	info ConnInfo

	writeMu sync.Mutex
}

func (cl *client) write(payload []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains the live push feeds: per-room message feeds, per-room
// membership feeds and per-user direct message feeds.
type Hub struct {
	mu     sync.RWMutex
	feeds  map[feedKey]map[*client]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		feeds:  make(map[feedKey]map[*client]struct{}),
		logger: logger,
	}
}

// Subscription is the teardown handle returned by every subscribe call.
// Close deregisters the connection; once closed, events for the feed are
// discarded rather than delivered.
type Subscription struct {
	once    sync.Once
	closeFn func()
	cl      *client
}

// Close is idempotent.
func (s *Subscription) Close() {
	s.once.Do(s.closeFn)
}

// Send delivers an event to this subscriber only, serialized with hub
// broadcasts on the same connection. Used to replay state on subscribe.
func (s *Subscription) Send(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.cl.write(payload)
}

// SubscribeRoomMessages registers a connection on a room's message feed.
func (h *Hub) SubscribeRoomMessages(roomID uuid.UUID, conn *websocket.Conn, info ConnInfo) *Subscription {
	return h.subscribe(feedKey{kind: KindRoomMessages, id: roomID}, conn, info)
}

// SubscribeRoomMembers registers a connection on a room's membership feed.
func (h *Hub) SubscribeRoomMembers(roomID uuid.UUID, conn *websocket.Conn, info ConnInfo) *Subscription {
	return h.subscribe(feedKey{kind: KindRoomMembers, id: roomID}, conn, info)
}

// SubscribeDirect registers a connection on the user's incoming DM feed.
func (h *Hub) SubscribeDirect(userID uuid.UUID, conn *websocket.Conn, info ConnInfo) *Subscription {
	return h.subscribe(feedKey{kind: KindDirect, id: userID}, conn, info)
}

func (h *Hub) subscribe(key feedKey, conn *websocket.Conn, info ConnInfo) *Subscription {
	cl := &client{conn: conn, info: info}

	h.mu.Lock()
	if _, ok := h.feeds[key]; !ok {
		h.feeds[key] = make(map[*client]struct{})
	}
	h.feeds[key][cl] = struct{}{}
	h.mu.Unlock()

	return &Subscription{closeFn: func() { h.remove(key, cl) }, cl: cl}
}

func (h *Hub) remove(key feedKey, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.feeds[key]; ok {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.feeds, key)
		}
	}
}

// BroadcastRoomMessage pushes a newly stored message to the room's message
// feed. The event carries only the raw message fields; subscribers resolve
// the sender snapshot themselves.
func (h *Hub) BroadcastRoomMessage(roomID uuid.UUID, msg models.RoomMessage) {
	event := models.RoomMessageEvent{Type: "message", Message: &msg}
	h.broadcast(feedKey{kind: KindRoomMessages, id: roomID}, event)
}

// BroadcastPresence pushes a membership transition to the room's member feed.
func (h *Hub) BroadcastPresence(event models.PresenceEvent) {
	h.broadcast(feedKey{kind: KindRoomMembers, id: event.RoomID}, event)
}

// PushDirectMessage delivers a direct message on the receiver's feed.
func (h *Hub) PushDirectMessage(msg models.DirectMessage) {
	event := models.DirectMessageEvent{Type: "message", Message: &msg}
	h.broadcast(feedKey{kind: KindDirect, id: msg.ReceiverID}, event)
}

func (h *Hub) broadcast(key feedKey, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal ws event", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.feeds[key]))
	for cl := range h.feeds[key] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.write(payload); err != nil {
			h.logger.Warn("websocket write failed",
				zap.String("kind", key.kind),
				zap.String("conn_id", cl.info.ConnID),
				zap.Error(err))
			cl.conn.Close()
			h.remove(key, cl)
			publishLifecycleEvent(context.Background(), key.kind, key.id, cl.info, "ws_error", err.Error())
		}
	}
}

func (h *Hub) subscriberCount(key feedKey) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[key])
}

// publishLifecycleEvent emits a ws lifecycle event to the event exchange and
// bumps the matching counter.
func publishLifecycleEvent(ctx context.Context, kind string, resourceID uuid.UUID, info ConnInfo, event, reason string) {
	observability.IncWSEvent(kind, event)

	payload := map[string]any{
		"ws": map[string]any{
			"kind":        kind,
			"resource_id": resourceID.String(),
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]any{
			"user_id":   info.UserID.String(),
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events."+kind, observability.NewEnvelope("ws_events", event, payload), headers)
}
