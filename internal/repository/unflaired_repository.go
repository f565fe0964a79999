package repository

import (
	"context"
	"fmt"

	"github.com/modwarden/backend/internal/database"
	"github.com/modwarden/backend/internal/models"
)

// UnflairedRepository persists the flair-enforcement state so tracked
// submissions survive a process restart. The primary key guarantees at most
// one live record per submission.
type UnflairedRepository struct {
	db *database.DB
}

func NewUnflairedRepository(db *database.DB) *UnflairedRepository {
	return &UnflairedRepository{db: db}
}

// Create inserts a record for a submission awaiting a flair decision.
func (r *UnflairedRepository) Create(ctx context.Context, record *models.UnflairedSubmission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO unflaired_submissions (submission_id, comment_id, domain, author, submitted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (submission_id) DO NOTHING
	`, record.SubmissionID, record.CommentID, record.Domain, record.Author, record.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create unflaired record: %w", err)
	}
	return nil
}

// Delete removes the record for a resolved or abandoned submission.
func (r *UnflairedRepository) Delete(ctx context.Context, submissionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM unflaired_submissions WHERE submission_id = $1`, submissionID)
	if err != nil {
		return fmt.Errorf("failed to delete unflaired record: %w", err)
	}
	return nil
}

// Exists reports whether a submission is currently awaiting a flair decision.
func (r *UnflairedRepository) Exists(ctx context.Context, submissionID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM unflaired_submissions WHERE submission_id = $1`, submissionID).Scan(&exists)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query unflaired record: %w", err)
	}
	return true, nil
}

// List returns all live records for a domain, oldest first.
func (r *UnflairedRepository) List(ctx context.Context, domain string) ([]models.UnflairedSubmission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT submission_id, comment_id, domain, author, submitted_at, created_at
		FROM unflaired_submissions
		WHERE domain = $1
		ORDER BY submitted_at
	`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list unflaired records: %w", err)
	}
	defer rows.Close()

	var records []models.UnflairedSubmission
	for rows.Next() {
		var record models.UnflairedSubmission
		if err := rows.Scan(&record.SubmissionID, &record.CommentID, &record.Domain,
			&record.Author, &record.SubmittedAt, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unflaired record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
