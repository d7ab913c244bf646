package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RoomMemberRepository manages the (room, user) membership rows.
type RoomMemberRepository interface {
	Activate(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	IsActiveMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// RoomMemberRepo is a sqlx implementation of RoomMemberRepository.
type RoomMemberRepo struct {
	db *sqlx.DB
}

// NewRoomMemberRepo constructs a RoomMemberRepo.
func NewRoomMemberRepo(db *sqlx.DB) *RoomMemberRepo {
	return &RoomMemberRepo{db: db}
}

// Activate joins the room as a single conditional upsert keyed by the
// UNIQUE(room_id, user_id) constraint: it creates an active row, flips an
// inactive one, and leaves an active one alone. Returns true only when a
// transition actually happened, so concurrent joins from the same user
// cannot double-count or create duplicate rows.
func (r *RoomMemberRepo) Activate(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := r.db.QueryRowxContext(ctx, `INSERT INTO room_members (room_id, user_id, is_active)
        VALUES ($1, $2, TRUE)
        ON CONFLICT (room_id, user_id) DO UPDATE SET is_active = TRUE
        WHERE room_members.is_active = FALSE
        RETURNING id`, roomID, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// Already active, nothing changed.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Deactivate leaves the room. Leaving an already-inactive or never-joined
// room is a no-op, not an error, and creates no row.
func (r *RoomMemberRepo) Deactivate(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE room_members SET is_active = FALSE
        WHERE room_id=$1 AND user_id=$2 AND is_active = TRUE`, roomID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsActiveMember checks whether the user currently sits in the room.
func (r *RoomMemberRepo) IsActiveMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM room_members
        WHERE room_id=$1 AND user_id=$2 AND is_active = TRUE)`, roomID, userID)
	return exists, err
}
