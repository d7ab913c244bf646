package models

import (
	"time"

	"github.com/google/uuid"
)

// DirectMessage is a private message between two users. Immutable once
// created except for ReadAt, which transitions once from null to set.
type DirectMessage struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	SenderID    uuid.UUID  `db:"sender_id" json:"sender_id"`
	ReceiverID  uuid.UUID  `db:"receiver_id" json:"receiver_id"`
	Content     string     `db:"content" json:"content"`
	MessageType string     `db:"message_type" json:"message_type"`
	ReadAt      *time.Time `db:"read_at" json:"read_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// DirectMessageEvent is pushed on the receiver's live DM feed.
type DirectMessageEvent struct {
	Type    string         `json:"type"`
	Message *DirectMessage `json:"message,omitempty"`
}
