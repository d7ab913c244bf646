package ws

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"chattat-service/internal/models"
)

func TestTrackerBannerExpires(t *testing.T) {
	tracker := NewActivityTracker(30 * time.Millisecond)
	roomID := uuid.New()

	tracker.Record(models.PresenceEvent{RoomID: roomID, UserID: uuid.New(), Joined: true, At: time.Now()})
	if len(tracker.Active(roomID)) != 1 {
		t.Fatalf("expected one active banner")
	}

	time.Sleep(60 * time.Millisecond)
	if len(tracker.Active(roomID)) != 0 {
		t.Fatalf("expected banner to expire")
	}
}

func TestTrackerOverlappingBannersAreIndependent(t *testing.T) {
	tracker := NewActivityTracker(time.Minute)
	roomID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	tracker.Record(models.PresenceEvent{RoomID: roomID, UserID: alice, Joined: true, At: time.Now()})
	tracker.Record(models.PresenceEvent{RoomID: roomID, UserID: bob, Joined: true, At: time.Now()})
	tracker.Record(models.PresenceEvent{RoomID: roomID, UserID: alice, Joined: false, At: time.Now()})

	if got := len(tracker.Active(roomID)); got != 3 {
		t.Fatalf("expected three overlapping banners, got %d", got)
	}
}

func TestTrackerPrunesByUserAndDirection(t *testing.T) {
	tracker := NewActivityTracker(time.Minute)
	roomID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	tracker.Record(models.PresenceEvent{RoomID: roomID, UserID: alice, Joined: true, At: time.Now()})
	tracker.Record(models.PresenceEvent{RoomID: roomID, UserID: alice, Joined: false, At: time.Now()})
	tracker.Record(models.PresenceEvent{RoomID: roomID, UserID: bob, Joined: true, At: time.Now()})

	tracker.prune(roomID, alice, true)

	active := tracker.Active(roomID)
	if len(active) != 2 {
		t.Fatalf("expected two banners after prune, got %d", len(active))
	}
	for _, event := range active {
		if event.UserID == alice && event.Joined {
			t.Fatalf("pruned banner still active")
		}
	}
}
