package models

import (
	"time"

	"github.com/google/uuid"
)

// Moderation event kinds recorded by the bot and streamed to dashboard
// clients.
const (
	EventRemoval        = "removal"
	EventApproval       = "approval"
	EventWarning        = "warning"
	EventBotban         = "botban"
	EventUnbotban       = "unbotban"
	EventTrack          = "track"
	EventUntrack        = "untrack"
	EventFilterHit      = "filter_hit"
	EventFlairRemoved   = "flair_removed"
	EventFlairResolved  = "flair_resolved"
	EventFlairAbandoned = "flair_abandoned"
	EventBanIntent      = "ban_intent"
	EventQueueWarning   = "queue_warning"
)

// ModEvent records one action the bot took, for the audit trail and the live
// dashboard feed.
type ModEvent struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Kind      string         `json:"kind" db:"kind"`
	Domain    string         `json:"domain" db:"domain"`
	Target    string         `json:"target" db:"target"`
	Actor     string         `json:"actor" db:"actor"`
	Detail    string         `json:"detail,omitempty" db:"detail"`
	Metadata  map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// NewModEvent builds a ModEvent with a fresh id and timestamp.
func NewModEvent(kind, domain, target, actor, detail string) *ModEvent {
	return &ModEvent{
		ID:        uuid.New(),
		Kind:      kind,
		Domain:    domain,
		Target:    target,
		Actor:     actor,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}
