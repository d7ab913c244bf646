package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is a chat room joinable by code or from the public directory.
// ActiveMembers is computed from membership rows on read, never stored.
type Room struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Code          string     `db:"code" json:"code"`
	CreatorID     uuid.UUID  `db:"creator_id" json:"creator_id"`
	MaxMembers    int        `db:"max_members" json:"max_members"`
	ActiveMembers int        `db:"active_members" json:"active_members"`
	IsPublic      bool       `db:"is_public" json:"is_public"`
	LastActivity  *time.Time `db:"last_activity" json:"last_activity,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// RoomMember is the (room, user) membership row. Created on first join,
// toggled inactive on leave, toggled active on rejoin, never deleted.
type RoomMember struct {
	ID       uuid.UUID `db:"id" json:"id"`
	RoomID   uuid.UUID `db:"room_id" json:"room_id"`
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	IsActive bool      `db:"is_active" json:"is_active"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// RoomMessage is an immutable message posted in a room.
type RoomMessage struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RoomID      uuid.UUID `db:"room_id" json:"room_id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Content     string    `db:"content" json:"content"`
	MessageType string    `db:"message_type" json:"message_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RoomMessageView is a message enriched with the author snapshot. Only the
// initially fetched page carries the snapshot; live events do not.
type RoomMessageView struct {
	RoomMessage
	Sender *ProfileSnapshot `json:"sender,omitempty"`
}

// RoomMessageEvent is broadcast on a room's live message feed. The message
// carries only raw fields; subscribers resolve the sender themselves.
type RoomMessageEvent struct {
	Type    string       `json:"type"`
	Message *RoomMessage `json:"message,omitempty"`
}

// PresenceEvent signals a membership transition on a room's member feed.
type PresenceEvent struct {
	Type     string    `json:"type"`
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Joined   bool      `json:"joined"`
	At       time.Time `json:"at"`
}
