package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chattat-service/internal/models"
)

// RoomMessageRepository defines interactions for room messages.
type RoomMessageRepository interface {
	Create(ctx context.Context, roomID, userID uuid.UUID, content string) (models.RoomMessage, error)
	ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]models.RoomMessage, error)
}

// RoomMessageRepo is a sqlx-backed implementation.
type RoomMessageRepo struct {
	db *sqlx.DB
}

// NewRoomMessageRepo constructs a RoomMessageRepo.
func NewRoomMessageRepo(db *sqlx.DB) *RoomMessageRepo {
	return &RoomMessageRepo{db: db}
}

// Create persists a room message.
func (r *RoomMessageRepo) Create(ctx context.Context, roomID, userID uuid.UUID, content string) (models.RoomMessage, error) {
	var msg models.RoomMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO room_messages (room_id, user_id, content)
        VALUES ($1, $2, $3)
        RETURNING id, room_id, user_id, content, message_type, created_at`, roomID, userID, content).
		StructScan(&msg)
	return msg, err
}

// ListRecent returns the most-recent window of messages reordered
// oldest-first for display.
func (r *RoomMessageRepo) ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]models.RoomMessage, error) {
	var msgs []models.RoomMessage
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, room_id, user_id, content, message_type, created_at FROM (
            SELECT id, room_id, user_id, content, message_type, created_at
            FROM room_messages WHERE room_id=$1
            ORDER BY created_at DESC LIMIT $2
        ) recent ORDER BY created_at ASC`, roomID, limit)
	return msgs, err
}
