package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/modwarden/backend/internal/database"
	"github.com/modwarden/backend/internal/models"
)

const offenseColumns = `
	username, domain, removed_comments, removed_submissions, approved_comments,
	approved_submissions, bans, shadow_banned, tracked, warnings_muted,
	last_warned_at, created_at, updated_at
`

// OffenseRepository is the per-user offense ledger. Usernames are normalized
// (lowercased) at this boundary so callers cannot split a user into two
// records by disagreeing on case.
type OffenseRepository struct {
	db *database.DB
}

func NewOffenseRepository(db *database.DB) *OffenseRepository {
	return &OffenseRepository{db: db}
}

// GetOrCreate returns the offense record for (username, domain), creating an
// empty one if none exists yet.
func (r *OffenseRepository) GetOrCreate(ctx context.Context, username, domain string) (*models.UserOffense, error) {
	username = models.NormalizeUsername(username)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_offenses (username, domain)
		VALUES ($1, $2)
		ON CONFLICT (username, domain) DO NOTHING
	`, username, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to create offense record: %w", err)
	}

	return r.get(ctx, username, domain)
}

// Get returns the offense record, or nil if the user has never been seen.
func (r *OffenseRepository) Get(ctx context.Context, username, domain string) (*models.UserOffense, error) {
	username = models.NormalizeUsername(username)

	record, err := r.get(ctx, username, domain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *OffenseRepository) get(ctx context.Context, username, domain string) (*models.UserOffense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+offenseColumns+`
		FROM user_offenses
		WHERE username = $1 AND domain = $2
	`, username, domain)
	return scanOffense(row)
}

// Increment adds one to the named counter and returns the updated record.
func (r *OffenseRepository) Increment(ctx context.Context, username, domain string, field models.OffenseField) (*models.UserOffense, error) {
	if !models.ValidOffenseField(field) {
		return nil, fmt.Errorf("unknown offense field: %s", field)
	}
	username = models.NormalizeUsername(username)

	if _, err := r.GetOrCreate(ctx, username, domain); err != nil {
		return nil, err
	}

	// Field name is validated against the closed set above, never user input.
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE user_offenses
		SET %s = %s + 1, updated_at = NOW()
		WHERE username = $1 AND domain = $2
		RETURNING `+offenseColumns, field, field), username, domain)

	record, err := scanOffense(row)
	if err != nil {
		return nil, fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return record, nil
}

// SetFlag sets a status flag, reporting whether the stored value changed.
// A false changed result with a nil error means the flag already held the
// requested value (e.g. the user was already tracked).
func (r *OffenseRepository) SetFlag(ctx context.Context, username, domain string, flag models.OffenseFlag, value bool) (bool, error) {
	var column string
	switch flag {
	case models.FlagShadowBanned:
		column = "shadow_banned"
	case models.FlagTracked:
		column = "tracked"
	case models.FlagWarningsMuted:
		column = "warnings_muted"
	default:
		return false, fmt.Errorf("unknown offense flag: %s", flag)
	}
	username = models.NormalizeUsername(username)

	if _, err := r.GetOrCreate(ctx, username, domain); err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE user_offenses
		SET %s = $3, updated_at = NOW()
		WHERE username = $1 AND domain = $2 AND %s <> $3
	`, column, column), username, domain, value)
	if err != nil {
		return false, fmt.Errorf("failed to set %s: %w", column, err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return changed > 0, nil
}

// SetLastWarned stamps the warning cooldown clock.
func (r *OffenseRepository) SetLastWarned(ctx context.Context, username, domain string, warnedAt time.Time) error {
	username = models.NormalizeUsername(username)

	_, err := r.db.ExecContext(ctx, `
		UPDATE user_offenses
		SET last_warned_at = $3, updated_at = NOW()
		WHERE username = $1 AND domain = $2
	`, username, domain, warnedAt)
	if err != nil {
		return fmt.Errorf("failed to set last_warned_at: %w", err)
	}
	return nil
}

// ListFlagged returns all records in a domain with the given flag set, used
// by the dashboard.
func (r *OffenseRepository) ListFlagged(ctx context.Context, domain string, flag models.OffenseFlag) ([]models.UserOffense, error) {
	var column string
	switch flag {
	case models.FlagShadowBanned:
		column = "shadow_banned"
	case models.FlagTracked:
		column = "tracked"
	case models.FlagWarningsMuted:
		column = "warnings_muted"
	default:
		return nil, fmt.Errorf("unknown offense flag: %s", flag)
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+offenseColumns+`
		FROM user_offenses
		WHERE domain = $1 AND %s = true
		ORDER BY username
	`, column), domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged users: %w", err)
	}
	defer rows.Close()

	var records []models.UserOffense
	for rows.Next() {
		record, err := scanOffense(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffense(row rowScanner) (*models.UserOffense, error) {
	record := &models.UserOffense{}
	var lastWarned sql.NullTime
	err := row.Scan(
		&record.Username,
		&record.Domain,
		&record.RemovedComments,
		&record.RemovedSubmissions,
		&record.ApprovedComments,
		&record.ApprovedSubmissions,
		&record.Bans,
		&record.ShadowBanned,
		&record.Tracked,
		&record.WarningsMuted,
		&lastWarned,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastWarned.Valid {
		record.LastWarnedAt = &lastWarned.Time
	}
	return record, nil
}
