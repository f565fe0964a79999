package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	service := NewJWTService("operator-signing-key", 24)
	operatorID := uuid.New()

	token, err := service.GenerateToken(operatorID, "operator@modwarden.example")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	claims, err := service.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if claims.UserID != operatorID {
		t.Errorf("expected operator id %s, got %s", operatorID, claims.UserID)
	}
	if claims.Email != "operator@modwarden.example" {
		t.Errorf("unexpected email in claims: %q", claims.Email)
	}
}

func TestValidateTokenRejectsBadInput(t *testing.T) {
	service := NewJWTService("operator-signing-key", 24)
	other := NewJWTService("different-key", 24)

	signedElsewhere, err := other.GenerateToken(uuid.New(), "operator@modwarden.example")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong signing key", signedElsewhere},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.ValidateToken(tt.token); err == nil {
				t.Fatal("expected validation to fail")
			}
		})
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	service := NewJWTService("operator-signing-key", -1)

	token, err := service.GenerateToken(uuid.New(), "operator@modwarden.example")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := service.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
