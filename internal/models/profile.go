package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the per-user record keyed by the identity provider's user id.
// It is created on first authenticated bootstrap and never deleted.
type Profile struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	AvatarURL    string     `db:"avatar_url" json:"avatar_url"`
	Bio          string     `db:"bio" json:"bio"`
	Charms       int        `db:"charms" json:"charms"`
	CharmsTotal  int        `db:"charms_total" json:"charms_total"`
	Level        int        `db:"level" json:"level"`
	LastActiveAt *time.Time `db:"last_active_at" json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ProfileSnapshot is the denormalized sender view attached to messages and
// presence events at read time. It is never stored.
type ProfileSnapshot struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	Level     int       `db:"level" json:"level"`
}

// CharmsTransaction records a single charms award.
type CharmsTransaction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Amount    int       `db:"amount" json:"amount"`
	Source    string    `db:"source" json:"source"`
	Metadata  []byte    `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RankingEntry is one leaderboard row, ordered by lifetime charms.
type RankingEntry struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	Level       int       `db:"level" json:"level"`
	CharmsTotal int       `db:"charms_total" json:"charms_total"`
}
