package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"chattat-service/internal/models"
)

// BannerLifetime is how long a join/leave banner stays visible.
const BannerLifetime = 3 * time.Second

// ActivityTracker holds the transient join/leave banners per room. Each
// recorded transition lives for a fixed lifetime and is then pruned by
// user-plus-direction match; simultaneous transitions from different users
// overlap independently.
type ActivityTracker struct {
	mu       sync.Mutex
	lifetime time.Duration
	rooms    map[uuid.UUID][]models.PresenceEvent
}

// NewActivityTracker constructs a tracker with the given banner lifetime.
func NewActivityTracker(lifetime time.Duration) *ActivityTracker {
	return &ActivityTracker{
		lifetime: lifetime,
		rooms:    make(map[uuid.UUID][]models.PresenceEvent),
	}
}

// Record adds a banner and schedules its removal.
func (t *ActivityTracker) Record(event models.PresenceEvent) {
	t.mu.Lock()
	t.rooms[event.RoomID] = append(t.rooms[event.RoomID], event)
	t.mu.Unlock()

	time.AfterFunc(t.lifetime, func() {
		t.prune(event.RoomID, event.UserID, event.Joined)
	})
}

// Active returns the banners currently alive for the room.
func (t *ActivityTracker) Active(roomID uuid.UUID) []models.PresenceEvent {
	cutoff := time.Now().Add(-t.lifetime)

	t.mu.Lock()
	defer t.mu.Unlock()

	alive := make([]models.PresenceEvent, 0, len(t.rooms[roomID]))
	for _, event := range t.rooms[roomID] {
		if event.At.After(cutoff) {
			alive = append(alive, event)
		}
	}
	return alive
}

func (t *ActivityTracker) prune(roomID, userID uuid.UUID, joined bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.rooms[roomID][:0]
	for _, event := range t.rooms[roomID] {
		if event.UserID == userID && event.Joined == joined {
			continue
		}
		kept = append(kept, event)
	}
	if len(kept) == 0 {
		delete(t.rooms, roomID)
		return
	}
	t.rooms[roomID] = kept
}
