package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/modwarden/backend/internal/database"
	"github.com/modwarden/backend/internal/models"
)

// EventRepository is the audit trail of actions the bot has taken.
type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create records a moderation event.
func (r *EventRepository) Create(ctx context.Context, event *models.ModEvent) error {
	meta := sql.NullString{}
	if event.Metadata != nil {
		if b, err := json.Marshal(event.Metadata); err == nil {
			meta = sql.NullString{String: string(b), Valid: true}
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mod_events (id, kind, domain, target, actor, detail, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.Kind, event.Domain, event.Target, event.Actor, event.Detail, meta, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert mod event: %w", err)
	}
	return nil
}

// ListRecent returns the most recent events for a domain.
func (r *EventRepository) ListRecent(ctx context.Context, domain string, limit int) ([]models.ModEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, domain, target, actor, detail, metadata, created_at
		FROM mod_events
		WHERE domain = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mod events: %w", err)
	}
	defer rows.Close()

	var events []models.ModEvent
	for rows.Next() {
		var event models.ModEvent
		var meta sql.NullString
		if err := rows.Scan(&event.ID, &event.Kind, &event.Domain, &event.Target,
			&event.Actor, &event.Detail, &meta, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mod event: %w", err)
		}
		if meta.Valid {
			var mm map[string]any
			_ = json.Unmarshal([]byte(meta.String), &mm)
			event.Metadata = mm
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// ListForUser returns recent events targeting a given user, newest first.
func (r *EventRepository) ListForUser(ctx context.Context, domain, username string, limit int) ([]models.ModEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, domain, target, actor, detail, metadata, created_at
		FROM mod_events
		WHERE domain = $1 AND target = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, domain, models.NormalizeUsername(username), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mod events: %w", err)
	}
	defer rows.Close()

	var events []models.ModEvent
	for rows.Next() {
		var event models.ModEvent
		var meta sql.NullString
		if err := rows.Scan(&event.ID, &event.Kind, &event.Domain, &event.Target,
			&event.Actor, &event.Detail, &meta, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mod event: %w", err)
		}
		if meta.Valid {
			var mm map[string]any
			_ = json.Unmarshal([]byte(meta.String), &mm)
			event.Metadata = mm
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
