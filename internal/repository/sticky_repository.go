package repository

import (
	"context"
	"fmt"

	"github.com/modwarden/backend/internal/database"
	"github.com/modwarden/backend/internal/models"
)

// StickyRepository tracks distinguished sticky comments whose reply threads
// the stream scanner keeps clear.
type StickyRepository struct {
	db *database.DB
}

func NewStickyRepository(db *database.DB) *StickyRepository {
	return &StickyRepository{db: db}
}

func (r *StickyRepository) Create(ctx context.Context, sticky *models.WatchedSticky) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watched_stickies (submission_id, comment_id, domain, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (submission_id, comment_id) DO NOTHING
	`, sticky.SubmissionID, sticky.CommentID, sticky.Domain)
	if err != nil {
		return fmt.Errorf("failed to create watched sticky: %w", err)
	}
	return nil
}

// CommentIDs returns the ids of all watched sticky comments in a domain.
func (r *StickyRepository) CommentIDs(ctx context.Context, domain string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT comment_id FROM watched_stickies WHERE domain = $1`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list watched stickies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan watched sticky: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
