package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Filter is a content filter applied to new submission titles. A filter with
// a zero ExpiresAt never expires.
type Filter struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Pattern   string     `json:"pattern" db:"pattern"`
	IsRegex   bool       `json:"is_regex" db:"is_regex"`
	Domain    string     `json:"domain" db:"domain"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether the filter's expiry has passed.
func (f *Filter) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && now.After(*f.ExpiresAt)
}

// Matches checks the text against the filter. Pattern is a comma-separated
// list of substrings, or of regular expressions when IsRegex is set. A regex
// that fails to compile matches nothing.
func (f *Filter) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, part := range strings.Split(f.Pattern, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if f.IsRegex {
			re, err := regexp.Compile(part)
			if err != nil {
				continue
			}
			if re.MatchString(text) {
				return true
			}
		} else if strings.Contains(lower, strings.ToLower(part)) {
			return true
		}
	}
	return false
}
