package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modwarden/backend/internal/database"
	"github.com/modwarden/backend/internal/models"
)

// FilterRepository stores content filters evaluated against new submission
// titles.
type FilterRepository struct {
	db *database.DB
}

func NewFilterRepository(db *database.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

// Create adds a filter. Duplicate (domain, pattern) pairs are ignored.
func (r *FilterRepository) Create(ctx context.Context, filter *models.Filter) error {
	if filter.ID == uuid.Nil {
		filter.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO filters (id, pattern, is_regex, domain, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (domain, pattern) DO NOTHING
	`, filter.ID, filter.Pattern, filter.IsRegex, filter.Domain, filter.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create filter: %w", err)
	}
	return nil
}

// Delete removes a filter by pattern.
func (r *FilterRepository) Delete(ctx context.Context, domain, pattern string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM filters WHERE domain = $1 AND pattern = $2`, domain, pattern)
	if err != nil {
		return fmt.Errorf("failed to delete filter: %w", err)
	}
	return nil
}

// List returns all filters for a domain, including expired ones; callers
// purge lazily via PurgeExpired.
func (r *FilterRepository) List(ctx context.Context, domain string) ([]models.Filter, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pattern, is_regex, domain, expires_at, created_at
		FROM filters
		WHERE domain = $1
		ORDER BY created_at
	`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	defer rows.Close()

	var filters []models.Filter
	for rows.Next() {
		var filter models.Filter
		if err := rows.Scan(&filter.ID, &filter.Pattern, &filter.IsRegex,
			&filter.Domain, &filter.ExpiresAt, &filter.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan filter: %w", err)
		}
		filters = append(filters, filter)
	}
	return filters, rows.Err()
}

// PurgeExpired removes filters whose expiry has passed.
func (r *FilterRepository) PurgeExpired(ctx context.Context, domain string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM filters WHERE domain = $1 AND expires_at IS NOT NULL AND expires_at < $2`,
		domain, now)
	if err != nil {
		return fmt.Errorf("failed to purge expired filters: %w", err)
	}
	return nil
}
