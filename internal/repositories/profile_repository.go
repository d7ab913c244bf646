package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chattat-service/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

const profileColumns = `id, user_id, email, username, display_name, avatar_url, bio, charms, charms_total, level, last_active_at, created_at, updated_at`

// ProfileUpdate carries the owner-editable fields. Nil means unchanged.
type ProfileUpdate struct {
	Username    *string
	DisplayName *string
	Bio         *string
}

// ProfileRepository abstracts profile persistence.
type ProfileRepository interface {
	Ensure(ctx context.Context, userID uuid.UUID, email, username string) (models.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	GetByUsername(ctx context.Context, username string) (models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (models.Profile, error)
	SetAvatarURL(ctx context.Context, userID uuid.UUID, url string) error
	Snapshots(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSnapshot, error)
	TopByCharms(ctx context.Context, limit int) ([]models.RankingEntry, error)
	AwardCharms(ctx context.Context, userID uuid.UUID, amount int, source string, metadata []byte) error
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Ensure creates the profile on first authentication and is a no-op
// afterwards, apart from refreshing last_active_at.
func (r *ProfileRepo) Ensure(ctx context.Context, userID uuid.UUID, email, username string) (models.Profile, error) {
	var profile models.Profile
	query := `INSERT INTO profiles (user_id, email, username)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET last_active_at = NOW()
        RETURNING ` + profileColumns
	err := r.db.GetContext(ctx, &profile, query, userID, email, username)
	return profile, err
}

// GetByUserID fetches a profile by the identity provider's user id.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetByUsername performs the exact-username lookup. Zero matches is a
// normal outcome surfaced as ErrProfileNotFound.
func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// Update applies the owner-editable fields and returns the updated row.
func (r *ProfileRepo) Update(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (models.Profile, error) {
	var profile models.Profile
	query := `UPDATE profiles SET
            username = COALESCE($2, username),
            display_name = COALESCE($3, display_name),
            bio = COALESCE($4, bio),
            updated_at = NOW()
        WHERE user_id=$1
        RETURNING ` + profileColumns
	err := r.db.GetContext(ctx, &profile, query, userID, update.Username, update.DisplayName, update.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// SetAvatarURL stores the public avatar URL after an upload.
func (r *ProfileRepo) SetAvatarURL(ctx context.Context, userID uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET avatar_url=$2, updated_at=NOW() WHERE user_id=$1`, userID, url)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Snapshots batch-loads the denormalized sender view for a set of users.
func (r *ProfileRepo) Snapshots(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSnapshot, error) {
	result := make(map[uuid.UUID]models.ProfileSnapshot, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT user_id, username, avatar_url, level FROM profiles WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var snapshots []models.ProfileSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, err
	}
	for _, s := range snapshots {
		result[s.UserID] = s
	}
	return result, nil
}

// TopByCharms returns the leaderboard ordered by lifetime charms.
func (r *ProfileRepo) TopByCharms(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	var entries []models.RankingEntry
	err := r.db.SelectContext(ctx, &entries, `SELECT user_id, username, avatar_url, level, charms_total
        FROM profiles ORDER BY charms_total DESC, username ASC LIMIT $1`, limit)
	return entries, err
}

// AwardCharms records a charms transaction and updates the profile's
// balance, lifetime total and derived level atomically.
func (r *ProfileRepo) AwardCharms(ctx context.Context, userID uuid.UUID, amount int, source string, metadata []byte) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO charms_transactions (user_id, amount, source, metadata) VALUES ($1, $2, $3, $4)`,
		userID, amount, source, metadata); err != nil {
		return err
	}

	// Level is derived from the running balance: charms/1000 + 1.
	res, err := tx.ExecContext(ctx, `UPDATE profiles SET
            charms = charms + $2,
            charms_total = charms_total + $2,
            level = (charms + $2) / 1000 + 1,
            last_active_at = NOW(),
            updated_at = NOW()
        WHERE user_id=$1`, userID, amount)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		err = ErrProfileNotFound
		return err
	}

	return tx.Commit()
}
