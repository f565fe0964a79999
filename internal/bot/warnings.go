package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/modwarden/backend/internal/metrics"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/notify"
	"github.com/rs/zerolog/log"
)

// Warnings sends threshold-breach notifications to the chat channel. One
// aggregated message per user covers every counter currently over its
// threshold, and the per-user cooldown prevents a steady drip of repeats
// while the counters keep climbing.
type Warnings struct {
	domain              string
	commentThreshold    int
	submissionThreshold int
	banThreshold        int
	cooldown            time.Duration
	botbans             bool

	offenses OffenseLedger
	webhook  Notifier
	now      func() time.Time
}

// CheckThresholds sends a warning for the record when any counter strictly
// exceeds its threshold and the user is neither muted nor inside the
// cooldown window. Returns true when a warning was delivered.
func (w *Warnings) CheckThresholds(ctx context.Context, record *models.UserOffense) (bool, error) {
	if record.WarningsMuted {
		return false, nil
	}

	now := w.now()
	if record.LastWarnedAt != nil && now.Sub(*record.LastWarnedAt) < w.cooldown {
		return false, nil
	}

	var lines []string
	if w.commentThreshold > 0 && record.RemovedComments > w.commentThreshold {
		lines = append(lines, fmt.Sprintf("%d removed comments", record.RemovedComments))
	}
	if w.submissionThreshold > 0 && record.RemovedSubmissions > w.submissionThreshold {
		lines = append(lines, fmt.Sprintf("%d removed submissions", record.RemovedSubmissions))
	}
	if w.banThreshold > 0 && record.Bans > w.banThreshold {
		lines = append(lines, fmt.Sprintf("%d bans", record.Bans))
	}
	if len(lines) == 0 {
		return false, nil
	}

	message := notify.NewMessage("")
	attachment := message.AddAttachment(
		fmt.Sprintf("Warning regarding user %s", record.Username),
		"",
		fmt.Sprintf("User has accumulated %s.", strings.Join(lines, ", ")),
		notify.ColorWarning,
	)
	attachment.CallbackID = "user_warning"
	attachment.AddField("Approved comments", fmt.Sprintf("%d", record.ApprovedComments))
	attachment.AddField("Approved submissions", fmt.Sprintf("%d", record.ApprovedSubmissions))
	w.addUserButtons(attachment, record)

	if err := w.webhook.Send(ctx, message); err != nil {
		return false, fmt.Errorf("failed to deliver warning for %s: %w", record.Username, err)
	}
	metrics.NotificationsTotal.WithLabelValues("warning").Inc()

	if err := w.offenses.SetLastWarned(ctx, record.Username, record.Domain, now); err != nil {
		// The warning went out; a stale cooldown stamp only risks one extra
		// message next pass.
		log.Warn().Err(err).Str("user", record.Username).Msg("failed to stamp warning cooldown")
	}
	return true, nil
}

// SendTrackedCopy forwards one piece of content by a tracked user to the
// chat channel.
func (w *Warnings) SendTrackedCopy(ctx context.Context, author, kind, title, body, permalink string) error {
	message := notify.NewMessage("")
	text := truncate(body, 500)
	attachment := message.AddAttachment(
		fmt.Sprintf("New %s by tracked user %s", kind, author),
		permalink,
		text,
		notify.ColorInfo,
	)
	if title != "" {
		attachment.AddField("Title", title)
	}

	if err := w.webhook.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to forward tracked %s by %s: %w", kind, author, err)
	}
	metrics.NotificationsTotal.WithLabelValues("tracked").Inc()
	return nil
}

// truncate cuts s to at most limit bytes without splitting a rune, appending
// an ellipsis when anything was dropped.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// addUserButtons attaches the operator actions for a warned user. Button
// values encode "command_username" for the interactive callback endpoint.
func (w *Warnings) addUserButtons(attachment *notify.Attachment, record *models.UserOffense) {
	attachment.AddButton("Verify", "verify_"+record.Username, "")

	if record.Tracked {
		attachment.AddButton("Untrack", "untrack_"+record.Username, "")
	} else {
		attachment.AddButton("Track", "track_"+record.Username, "")
	}

	if w.botbans {
		if record.ShadowBanned {
			attachment.AddButton("Unbotban", "unbotban_"+record.Username, "")
		} else {
			attachment.AddConfirmButton("Botban", "botban_"+record.Username, "danger",
				fmt.Sprintf("New content by %s will be removed automatically.", record.Username))
		}
	}

	attachment.AddButton("Mute warnings", "mute_"+record.Username, "")
}
