package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modwarden/backend/internal/metrics"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/repository"
	"github.com/rs/zerolog/log"
)

// scanModLog processes one page of the moderation log. Each entry passes
// through the dedup ledger first, so replaying the same page after a crash
// or across overlapping passes never double-increments a counter.
func (b *Bot) scanModLog(ctx context.Context) error {
	actions, err := b.api.ModLog(ctx, b.domain, b.cfg.ModlogPageSize)
	if err != nil {
		b.warnPermissionDenied(ctx, "modlog", err)
		return fmt.Errorf("failed to fetch modlog: %w", err)
	}

	for i := range actions {
		action := &actions[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := b.seen.MarkSeen(ctx, action.ID, action.Domain)
		if errors.Is(err, repository.ErrAlreadySeen) {
			metrics.ItemsSkippedTotal.WithLabelValues("modlog").Inc()
			continue
		}
		if err != nil {
			return err
		}

		if err := b.processModAction(ctx, action); err != nil {
			// Ledger idempotence makes it safe to move on; the counter for
			// this one entry is lost rather than the whole pass.
			metrics.ScanErrorsTotal.WithLabelValues("modlog").Inc()
			log.Error().Err(err).Str("action_id", action.ID).Str("kind", action.Action).
				Msg("failed to process modlog entry")
			continue
		}
		metrics.ItemsProcessedTotal.WithLabelValues("modlog").Inc()
	}
	return nil
}

func (b *Bot) processModAction(ctx context.Context, action *models.ModAction) error {
	var field models.OffenseField

	switch action.Action {
	case models.ActionRemoveComment:
		field = models.FieldRemovedComments
	case models.ActionRemoveSubmission:
		field = models.FieldRemovedSubmissions
	case models.ActionApproveComment:
		field = models.FieldApprovedComments
	case models.ActionApproveSubmission:
		field = models.FieldApprovedSubmissions
	case models.ActionBanUser:
		field = models.FieldBans
		b.handleBan(ctx, action)
	case models.ActionUnbanUser:
		if b.notes != nil {
			if err := b.notes.AddBanNote(ctx, action, true); err != nil {
				log.Warn().Err(err).Str("user", action.TargetAuthor).Msg("failed to add unban note")
			}
		}
		return nil
	case models.ActionSticky:
		if b.cfg.WatchStickies {
			b.handleSticky(ctx, action)
		}
		return nil
	default:
		// Unrecognized action kinds are ignored.
		return nil
	}

	record, err := b.offenses.Increment(ctx, action.TargetAuthor, action.Domain, field)
	if err != nil {
		return err
	}

	if _, err := b.warnings.CheckThresholds(ctx, record); err != nil {
		log.Warn().Err(err).Str("user", record.Username).Msg("threshold check failed")
	}
	return nil
}

// handleBan records the ban annotation and, when enabled, re-issues the ban
// with the parsed duration. The default path only logs intent.
func (b *Bot) handleBan(ctx context.Context, action *models.ModAction) {
	duration := parseBanDuration(action.Details)

	if b.notes != nil {
		if err := b.notes.AddBanNote(ctx, action, false); err != nil {
			log.Warn().Err(err).Str("user", action.TargetAuthor).Msg("failed to add ban note")
		}
	}

	if action.TargetAuthor == "[deleted]" || strings.Contains(action.Description, "| /u/") {
		return
	}

	reason := action.Description
	if reason == "" {
		reason = "none provided"
	}
	reason = reason + " | /u/" + action.Moderator

	days := 0
	if duration != nil {
		days = *duration
	}

	if !b.cfg.EnableBans {
		log.Info().Str("user", action.TargetAuthor).Str("reason", reason).Int("days", days).
			Msg("ban intent (issuing disabled)")
		b.recordEvent(ctx, models.NewModEvent(models.EventBanIntent, action.Domain,
			models.NormalizeUsername(action.TargetAuthor), action.Moderator, reason))
		return
	}

	banned, err := b.api.IsBanned(ctx, action.Domain, action.TargetAuthor)
	if err != nil || !banned {
		return
	}
	if err := b.api.BanUser(ctx, action.Domain, action.TargetAuthor, reason, days); err != nil {
		log.Error().Err(err).Str("user", action.TargetAuthor).Msg("failed to issue ban")
	}
}

// handleSticky starts watching a distinguished sticky comment's replies.
// Flair-enforcement comments mention flairs and are left alone.
func (b *Bot) handleSticky(ctx context.Context, action *models.ModAction) {
	if !strings.HasPrefix(action.TargetFullname, "t1_") {
		return
	}
	commentID := strings.TrimPrefix(action.TargetFullname, "t1_")

	comment, err := b.api.Comment(ctx, commentID)
	if err != nil {
		log.Warn().Err(err).Str("comment_id", commentID).Msg("failed to fetch sticky comment")
		return
	}
	if strings.Contains(comment.Body, "flair") {
		return
	}

	sticky := &models.WatchedSticky{
		SubmissionID: comment.SubmissionID,
		CommentID:    comment.ID,
		Domain:       action.Domain,
	}
	if err := b.stickies.Create(ctx, sticky); err != nil {
		log.Warn().Err(err).Str("comment_id", commentID).Msg("failed to watch sticky")
	}
}

// parseBanDuration extracts the ban length in days from the free-text
// details field, taking the first integer token. Returns nil when no number
// is present (permanent ban).
func parseBanDuration(details string) *int {
	start := -1
	for i, r := range details {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}
	end := start
	for end < len(details) && details[end] >= '0' && details[end] <= '9' {
		end++
	}
	days, err := strconv.Atoi(details[start:end])
	if err != nil {
		return nil
	}
	return &days
}
