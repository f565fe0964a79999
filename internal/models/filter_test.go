package models

import (
	"testing"
	"time"
)

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		isRegex bool
		text    string
		want    bool
	}{
		{"substring hit", "buy now", false, "BUY NOW limited offer", true},
		{"substring miss", "buy now", false, "legitimate question", false},
		{"comma separated second part", "crypto, casino", false, "best CASINO in town", true},
		{"regex hit", `(?i)free\s+money`, true, "FREE   money inside", true},
		{"regex miss", `^spam$`, true, "not spam at all", false},
		{"invalid regex matches nothing", `[unclosed`, true, "[unclosed", false},
		{"empty parts skipped", ",,", false, "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := Filter{Pattern: tt.pattern, IsRegex: tt.isRegex}
			if got := filter.Matches(tt.text); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFilterExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry", nil, false},
		{"expired", &past, true},
		{"not yet expired", &future, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := Filter{ExpiresAt: tt.expiresAt}
			if got := filter.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
