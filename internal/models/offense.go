package models

import (
	"strings"
	"time"
)

// OffenseField names a counter on UserOffense that scanners may increment.
type OffenseField string

const (
	FieldRemovedComments     OffenseField = "removed_comments"
	FieldRemovedSubmissions  OffenseField = "removed_submissions"
	FieldApprovedComments    OffenseField = "approved_comments"
	FieldApprovedSubmissions OffenseField = "approved_submissions"
	FieldBans                OffenseField = "bans"
)

// OffenseFlag names a boolean status flag on UserOffense.
type OffenseFlag string

const (
	FlagShadowBanned  OffenseFlag = "shadow_banned"
	FlagTracked       OffenseFlag = "tracked"
	FlagWarningsMuted OffenseFlag = "warnings_muted"
)

// UserOffense is the per-user, per-domain offense record. Counters only grow;
// flags are toggled by operator commands. LastWarnedAt is nil until the first
// warning is sent.
type UserOffense struct {
	Username            string     `json:"username" db:"username"`
	Domain              string     `json:"domain" db:"domain"`
	RemovedComments     int        `json:"removed_comments" db:"removed_comments"`
	RemovedSubmissions  int        `json:"removed_submissions" db:"removed_submissions"`
	ApprovedComments    int        `json:"approved_comments" db:"approved_comments"`
	ApprovedSubmissions int        `json:"approved_submissions" db:"approved_submissions"`
	Bans                int        `json:"bans" db:"bans"`
	ShadowBanned        bool       `json:"shadow_banned" db:"shadow_banned"`
	Tracked             bool       `json:"tracked" db:"tracked"`
	WarningsMuted       bool       `json:"warnings_muted" db:"warnings_muted"`
	LastWarnedAt        *time.Time `json:"last_warned_at,omitempty" db:"last_warned_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// Flag returns the current value of the named status flag.
func (u *UserOffense) Flag(flag OffenseFlag) bool {
	switch flag {
	case FlagShadowBanned:
		return u.ShadowBanned
	case FlagTracked:
		return u.Tracked
	case FlagWarningsMuted:
		return u.WarningsMuted
	}
	return false
}

// ValidOffenseField reports whether field names a known counter.
func ValidOffenseField(field OffenseField) bool {
	switch field {
	case FieldRemovedComments, FieldRemovedSubmissions, FieldApprovedComments,
		FieldApprovedSubmissions, FieldBans:
		return true
	}
	return false
}

// NormalizeUsername lowercases and trims a platform username. Every code path
// touching the offense ledger must go through this so the same user never
// splits into two records.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
