package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection statuses. Rejected is terminal.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

// Connection is a directed friendship edge created by the requester.
// Friendship is the accepted edge, queried in both directions.
type Connection struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	FriendID  uuid.UUID `db:"friend_id" json:"friend_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FriendRequestView is an incoming pending request with the sender resolved.
type FriendRequestView struct {
	ID        uuid.UUID       `json:"id"`
	Sender    ProfileSnapshot `json:"sender"`
	CreatedAt time.Time       `json:"created_at"`
}
