package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chattat-service/internal/models"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionExists   = errors.New("connection already exists")
)

// ConnectionRepository abstracts friendship edge persistence.
type ConnectionRepository interface {
	Create(ctx context.Context, userID, friendID uuid.UUID) (models.Connection, error)
	Get(ctx context.Context, id uuid.UUID) (models.Connection, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListIncomingPending(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)
	ExistsBetween(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	DeleteBetween(ctx context.Context, userID, friendID uuid.UUID) error
}

// ConnectionRepo is a sqlx implementation of ConnectionRepository.
type ConnectionRepo struct {
	db *sqlx.DB
}

// NewConnectionRepo constructs a ConnectionRepo.
func NewConnectionRepo(db *sqlx.DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

// Create inserts a pending edge from requester to recipient. An edge in
// either direction, whatever its status, blocks a new request.
func (r *ConnectionRepo) Create(ctx context.Context, userID, friendID uuid.UUID) (models.Connection, error) {
	exists, err := r.ExistsBetween(ctx, userID, friendID)
	if err != nil {
		return models.Connection{}, err
	}
	if exists {
		return models.Connection{}, ErrConnectionExists
	}

	var conn models.Connection
	err = r.db.QueryRowxContext(ctx, `INSERT INTO user_connections (user_id, friend_id, status)
        VALUES ($1, $2, 'pending')
        RETURNING id, user_id, friend_id, status, created_at`, userID, friendID).
		StructScan(&conn)
	return conn, err
}

// Get fetches a single edge by id.
func (r *ConnectionRepo) Get(ctx context.Context, id uuid.UUID) (models.Connection, error) {
	var conn models.Connection
	err := r.db.GetContext(ctx, &conn, `SELECT id, user_id, friend_id, status, created_at FROM user_connections WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Connection{}, ErrConnectionNotFound
	}
	return conn, err
}

// UpdateStatus transitions a pending edge. Rejected and accepted edges are
// terminal, so anything already decided reports not found.
func (r *ConnectionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE user_connections SET status=$2 WHERE id=$1 AND status='pending'`, id, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// ListFriendIDs returns the other side of every accepted edge touching the
// user, in either direction.
func (r *ConnectionRepo) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `SELECT CASE WHEN user_id=$1 THEN friend_id ELSE user_id END
        FROM user_connections
        WHERE (user_id=$1 OR friend_id=$1) AND status='accepted'`, userID)
	return ids, err
}

// ListIncomingPending returns pending requests addressed to the user.
func (r *ConnectionRepo) ListIncomingPending(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.SelectContext(ctx, &conns, `SELECT id, user_id, friend_id, status, created_at
        FROM user_connections WHERE friend_id=$1 AND status='pending' ORDER BY created_at DESC`, userID)
	return conns, err
}

// ExistsBetween reports whether any edge links the two users.
func (r *ConnectionRepo) ExistsBetween(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM user_connections
        WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1))`, userID, friendID)
	return exists, err
}

// AreFriends reports whether an accepted edge links the two users in either
// direction.
func (r *ConnectionRepo) AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM user_connections
        WHERE ((user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)) AND status='accepted')`, userID, friendID)
	return exists, err
}

// DeleteBetween removes the edge in both directions. Deleting a missing
// edge is a no-op.
func (r *ConnectionRepo) DeleteBetween(ctx context.Context, userID, friendID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_connections
        WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)`, userID, friendID)
	return err
}
