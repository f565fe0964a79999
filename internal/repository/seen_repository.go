package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/modwarden/backend/internal/database"
	"github.com/rs/zerolog/log"
)

// ErrAlreadySeen is returned by MarkSeen when the item id is already in the
// ledger. It is the normal steady-state signal, not a failure.
var ErrAlreadySeen = errors.New("item already seen")

const (
	sweepAttempts      = 6
	sweepRetryDelay    = 3 * time.Second
	markSeenRetryDelay = time.Second
)

// SeenRepository is the deduplication ledger: a durable set of item ids the
// scanners have already processed. The insert is atomic at the storage layer
// (unique primary key), so concurrent scanners cannot both claim an item.
type SeenRepository struct {
	db        *database.DB
	retention time.Duration
}

// NewSeenRepository constructs the ledger and sweeps out entries older than
// the retention window. The sweep is retried a few times before failing;
// operating without a working dedup ledger risks duplicate moderation
// actions, so callers should treat an error here as fatal.
func NewSeenRepository(db *database.DB, retention time.Duration) (*SeenRepository, error) {
	r := &SeenRepository{db: db, retention: retention}

	var err error
	for attempt := 1; attempt <= sweepAttempts; attempt++ {
		var removed int64
		removed, err = r.sweep(context.Background())
		if err == nil {
			if removed > 0 {
				log.Info().Int64("removed", removed).Msg("seen ledger: swept expired ids")
			}
			return r, nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("seen ledger: sweep failed")
		if attempt < sweepAttempts {
			time.Sleep(sweepRetryDelay)
		}
	}
	return nil, fmt.Errorf("failed to sweep seen ledger: %w", err)
}

// MarkSeen records an item id, returning ErrAlreadySeen if another pass has
// already claimed it. Storage failures are retried until the context is
// cancelled: losing a dedup write would cause duplicate processing on the
// next pass, which is worse than blocking this one.
func (r *SeenRepository) MarkSeen(ctx context.Context, itemID, domain string) error {
	query := `
		INSERT INTO processed_items (thing_id, domain, seen_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (thing_id) DO NOTHING
	`

	for {
		res, err := r.db.ExecContext(ctx, query, itemID, domain)
		if err == nil {
			inserted, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read insert result: %w", err)
			}
			if inserted == 0 {
				return ErrAlreadySeen
			}
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Str("thing_id", itemID).Msg("seen ledger: insert failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(markSeenRetryDelay):
		}
	}
}

// HasSeen reports whether an item id is present in the ledger.
func (r *SeenRepository) HasSeen(ctx context.Context, itemID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_items WHERE thing_id = $1`, itemID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query seen ledger: %w", err)
	}
	return true, nil
}

// Sweep removes ledger entries older than the retention window. Failures are
// logged by callers, not fatal.
func (r *SeenRepository) Sweep(ctx context.Context) (int64, error) {
	return r.sweep(ctx)
}

func (r *SeenRepository) sweep(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM processed_items WHERE seen_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(r.retention.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired ids: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return removed, nil
}
