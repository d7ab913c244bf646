package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chattat-service/internal/models"
)

// DirectMessageRepository defines interactions for private messages.
type DirectMessageRepository interface {
	Create(ctx context.Context, senderID, receiverID uuid.UUID, content string) (models.DirectMessage, error)
	ListBetween(ctx context.Context, userID, friendID uuid.UUID) ([]models.DirectMessage, error)
	MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error)
}

// DirectMessageRepo is a sqlx-backed implementation.
type DirectMessageRepo struct {
	db *sqlx.DB
}

// NewDirectMessageRepo constructs a DirectMessageRepo.
func NewDirectMessageRepo(db *sqlx.DB) *DirectMessageRepo {
	return &DirectMessageRepo{db: db}
}

// Create persists a direct message.
func (r *DirectMessageRepo) Create(ctx context.Context, senderID, receiverID uuid.UUID, content string) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO direct_messages (sender_id, receiver_id, content)
        VALUES ($1, $2, $3)
        RETURNING id, sender_id, receiver_id, content, message_type, read_at, created_at`,
		senderID, receiverID, content).
		StructScan(&msg)
	return msg, err
}

// ListBetween returns the full thread between two users oldest-first.
func (r *DirectMessageRepo) ListBetween(ctx context.Context, userID, friendID uuid.UUID) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, sender_id, receiver_id, content, message_type, read_at, created_at
        FROM direct_messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at ASC`, userID, friendID)
	return msgs, err
}

// MarkRead sets read_at on every unread message from the sender to the
// receiver. Read timestamps only ever move from null to set, so re-reading
// a thread touches nothing.
func (r *DirectMessageRepo) MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE direct_messages SET read_at=NOW()
        WHERE receiver_id=$1 AND sender_id=$2 AND read_at IS NULL`, receiverID, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
