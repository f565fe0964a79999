package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modwarden/backend/internal/database"
	"github.com/modwarden/backend/internal/models"
)

// OperatorRepository stores dashboard operator accounts.
type OperatorRepository struct {
	db *database.DB
}

func NewOperatorRepository(db *database.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// Create creates a new operator
func (r *OperatorRepository) Create(ctx context.Context, operator *models.Operator) error {
	query := `
		INSERT INTO operators (id, email, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		operator.ID,
		operator.Email,
		operator.DisplayName,
		operator.PasswordHash,
	).Scan(&operator.CreatedAt, &operator.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}

	return nil
}

// GetByID retrieves an operator by ID
func (r *OperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM operators
		WHERE id = $1
	`

	operator := &models.Operator{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&operator.ID,
		&operator.Email,
		&operator.DisplayName,
		&operator.PasswordHash,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, fmt.Errorf("operator not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}

	return operator, nil
}

// GetByEmail retrieves an operator by email
func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM operators
		WHERE email = $1
	`

	operator := &models.Operator{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&operator.ID,
		&operator.Email,
		&operator.DisplayName,
		&operator.PasswordHash,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, fmt.Errorf("operator not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}

	return operator, nil
}
