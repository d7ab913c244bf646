package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chattat-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// active_members is derived from membership rows on every read instead of
// being stored on the room, so it cannot drift.
const roomColumns = `r.id, r.name, r.code, r.creator_id, r.max_members,
        (SELECT COUNT(*) FROM room_members rm WHERE rm.room_id = r.id AND rm.is_active) AS active_members,
        r.is_public, r.last_activity, r.created_at, r.updated_at`

// RoomRepository abstracts room persistence.
type RoomRepository interface {
	Create(ctx context.Context, creatorID uuid.UUID, name, code string, isPublic bool) (models.Room, error)
	GetByID(ctx context.Context, roomID uuid.UUID) (models.Room, error)
	GetByCode(ctx context.Context, code string) (models.Room, error)
	ListVisible(ctx context.Context, userID uuid.UUID) ([]models.Room, error)
	TouchActivity(ctx context.Context, roomID uuid.UUID) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create inserts a room with a pre-generated join code.
func (r *RoomRepo) Create(ctx context.Context, creatorID uuid.UUID, name, code string, isPublic bool) (models.Room, error) {
	var room models.Room
	err := r.db.QueryRowxContext(ctx, `INSERT INTO rooms (name, code, creator_id, is_public)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, code, creator_id, max_members, 0 AS active_members, is_public, last_activity, created_at, updated_at`,
		name, code, creatorID, isPublic).
		StructScan(&room)
	return room, err
}

// GetByID fetches a room by id.
func (r *RoomRepo) GetByID(ctx context.Context, roomID uuid.UUID) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms r WHERE r.id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// GetByCode fetches a room by its human-shareable join code.
func (r *RoomRepo) GetByCode(ctx context.Context, code string) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms r WHERE r.code=$1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListVisible returns the union of public rooms, rooms the user created and
// rooms the user holds any membership row for, most recent activity first.
func (r *RoomRepo) ListVisible(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.SelectContext(ctx, &rooms, `SELECT `+roomColumns+` FROM rooms r
        WHERE r.is_public = TRUE
           OR r.creator_id = $1
           OR EXISTS (SELECT 1 FROM room_members rm WHERE rm.room_id = r.id AND rm.user_id = $1)
        ORDER BY r.last_activity DESC NULLS LAST`, userID)
	return rooms, err
}

// TouchActivity bumps last_activity, used when a message is posted.
func (r *RoomRepo) TouchActivity(ctx context.Context, roomID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rooms SET last_activity=NOW(), updated_at=NOW() WHERE id=$1`, roomID)
	return err
}
