// Package bot implements the moderation automation core: the modlog and
// content-stream scanners, the per-user offense ledger updates, flair
// enforcement, and threshold-based operator warnings. Scanners share durable
// ledgers and are idempotent per item, so any pass can be replayed after a
// crash without double-counting.
package bot

import (
	"context"
	"time"

	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/notify"
)

// SeenLedger is the deduplication ledger. MarkSeen must be atomic
// insert-or-fail; repository.ErrAlreadySeen signals an item another pass has
// already claimed.
type SeenLedger interface {
	MarkSeen(ctx context.Context, itemID, domain string) error
	HasSeen(ctx context.Context, itemID string) (bool, error)
	Sweep(ctx context.Context) (int64, error)
}

// OffenseLedger is the per-user offense counter and flag store.
type OffenseLedger interface {
	GetOrCreate(ctx context.Context, username, domain string) (*models.UserOffense, error)
	Get(ctx context.Context, username, domain string) (*models.UserOffense, error)
	Increment(ctx context.Context, username, domain string, field models.OffenseField) (*models.UserOffense, error)
	SetFlag(ctx context.Context, username, domain string, flag models.OffenseFlag, value bool) (bool, error)
	SetLastWarned(ctx context.Context, username, domain string, warnedAt time.Time) error
}

// UnflairedStore persists flair-enforcement state across restarts.
type UnflairedStore interface {
	Create(ctx context.Context, record *models.UnflairedSubmission) error
	Delete(ctx context.Context, submissionID string) error
	Exists(ctx context.Context, submissionID string) (bool, error)
	List(ctx context.Context, domain string) ([]models.UnflairedSubmission, error)
}

// FilterStore holds the content filters applied to submission titles.
type FilterStore interface {
	Create(ctx context.Context, filter *models.Filter) error
	Delete(ctx context.Context, domain, pattern string) error
	List(ctx context.Context, domain string) ([]models.Filter, error)
	PurgeExpired(ctx context.Context, domain string, now time.Time) error
}

// StickyStore tracks watched sticky comments.
type StickyStore interface {
	Create(ctx context.Context, sticky *models.WatchedSticky) error
	CommentIDs(ctx context.Context, domain string) ([]string, error)
}

// EventStore records the bot's audit trail.
type EventStore interface {
	Create(ctx context.Context, event *models.ModEvent) error
}

// EventPublisher fans a recorded event out to live subscribers. May be nil.
type EventPublisher interface {
	PublishModEvent(ctx context.Context, event *models.ModEvent) error
}

// ModerationAPI is the slice of the platform client the bot consumes.
type ModerationAPI interface {
	ModLog(ctx context.Context, domain string, limit int) ([]models.ModAction, error)
	NewSubmissions(ctx context.Context, domain string, limit int) ([]models.Submission, error)
	NewComments(ctx context.Context, domain string, limit int) ([]models.Comment, error)
	ModQueueSize(ctx context.Context, domain string, limit int) (int, error)
	Submission(ctx context.Context, id string) (*models.Submission, error)
	SubmissionComments(ctx context.Context, id string) ([]models.Comment, error)
	Comment(ctx context.Context, id string) (*models.Comment, error)
	FlairChoices(ctx context.Context, submissionID string) ([]models.FlairChoice, error)
	SelectFlair(ctx context.Context, submissionID string, choice models.FlairChoice) error
	RemoveSubmission(ctx context.Context, id string) error
	ApproveSubmission(ctx context.Context, id string) error
	ReportSubmission(ctx context.Context, id, reason string) error
	RemoveComment(ctx context.Context, id string) error
	PostComment(ctx context.Context, submissionID, body string) (*models.Comment, error)
	DistinguishComment(ctx context.Context, id string) error
	BanUser(ctx context.Context, domain, username, reason string, days int) error
	IsBanned(ctx context.Context, domain, username string) (bool, error)
	ComposeModmail(ctx context.Context, domain, subject, body string) error
}

// Notifier delivers messages to the chat channel. Failures are logged, not
// retried.
type Notifier interface {
	Send(ctx context.Context, message *notify.Message) error
}

// AnnotationSink appends moderator notes for a user. May be nil when the
// notes module is disabled.
type AnnotationSink interface {
	AddBanNote(ctx context.Context, action *models.ModAction, unban bool) error
}
