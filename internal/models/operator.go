package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operator is a dashboard account allowed to issue moderation commands.
type Operator struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks basic operator fields
func (o *Operator) Validate() error {
	if o.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(o.Email, "@") {
		return fmt.Errorf("invalid email")
	}
	if o.DisplayName == "" {
		return fmt.Errorf("display name is required")
	}
	if len(o.DisplayName) < 2 || len(o.DisplayName) > 100 {
		return fmt.Errorf("display name length invalid")
	}
	return nil
}

type CreateOperatorRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string   `json:"token"`
	Operator Operator `json:"operator"`
}
