package auth

import "testing"

func TestPasswordHashAndCheck(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"typical", "correct horse battery staple"},
		{"short", "x"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if err != nil {
				t.Fatalf("HashPassword error: %v", err)
			}
			if hash == tt.password {
				t.Fatal("hash must differ from the plain password")
			}
			if err := CheckPassword(hash, tt.password); err != nil {
				t.Errorf("expected password to verify, got %v", err)
			}
		})
	}
}

func TestCheckPasswordRejectsMismatch(t *testing.T) {
	hash, err := HashPassword("the real password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if err := CheckPassword(hash, "a guess"); err == nil {
		t.Fatal("expected mismatched password to be rejected")
	}
}
