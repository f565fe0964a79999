package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/modwarden/backend/internal/metrics"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/repository"
	"github.com/rs/zerolog/log"
)

// scanStream runs one pass over the new-submissions and new-comments feeds.
func (b *Bot) scanStream(ctx context.Context) error {
	if err := b.scanSubmissions(ctx); err != nil {
		return err
	}
	return b.scanComments(ctx)
}

func (b *Bot) scanSubmissions(ctx context.Context) error {
	submissions, err := b.api.NewSubmissions(ctx, b.domain, b.cfg.StreamPageSize)
	if err != nil {
		b.warnPermissionDenied(ctx, "stream", err)
		return fmt.Errorf("failed to fetch new submissions: %w", err)
	}

	filters, err := b.loadFilters(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load filters, skipping filter checks this pass")
	}

	for i := range submissions {
		submission := &submissions[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Flair state advances on every sighting, not just the first: a
		// submission inside its grace period is marked seen below and would
		// otherwise never be enforced.
		if b.cfg.EnableFlair {
			b.flair.Consider(ctx, submission)
		}

		err := b.seen.MarkSeen(ctx, submission.ID, submission.Domain)
		if errors.Is(err, repository.ErrAlreadySeen) {
			metrics.ItemsSkippedTotal.WithLabelValues("submissions").Inc()
			continue
		}
		if err != nil {
			return err
		}
		metrics.ItemsProcessedTotal.WithLabelValues("submissions").Inc()

		if b.matchFilters(ctx, submission, filters) {
			continue
		}

		record, err := b.offenses.Get(ctx, submission.Author, submission.Domain)
		if err != nil {
			log.Error().Err(err).Str("user", submission.Author).Msg("failed to load offense record")
			continue
		}
		if record == nil {
			continue
		}

		if record.ShadowBanned {
			b.removeShadowBanned(ctx, "submission", submission.ID, record.Username)
			continue
		}
		if record.Tracked {
			if err := b.warnings.SendTrackedCopy(ctx, record.Username, "submission",
				submission.Title, submission.Body, submission.Permalink); err != nil {
				log.Warn().Err(err).Msg("tracked copy delivery failed")
			}
		}
		if _, err := b.warnings.CheckThresholds(ctx, record); err != nil {
			log.Warn().Err(err).Str("user", record.Username).Msg("threshold check failed")
		}
	}
	return nil
}

func (b *Bot) scanComments(ctx context.Context) error {
	comments, err := b.api.NewComments(ctx, b.domain, b.cfg.StreamPageSize)
	if err != nil {
		b.warnPermissionDenied(ctx, "stream", err)
		return fmt.Errorf("failed to fetch new comments: %w", err)
	}

	var watched map[string]bool
	if b.cfg.WatchStickies {
		ids, err := b.stickies.CommentIDs(ctx, b.domain)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load watched stickies")
		} else {
			watched = make(map[string]bool, len(ids))
			for _, id := range ids {
				watched[id] = true
			}
		}
	}

	for i := range comments {
		comment := &comments[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if comment.Author == actorBot {
			continue
		}

		err := b.seen.MarkSeen(ctx, comment.ID, comment.Domain)
		if errors.Is(err, repository.ErrAlreadySeen) {
			metrics.ItemsSkippedTotal.WithLabelValues("comments").Inc()
			continue
		}
		if err != nil {
			return err
		}
		metrics.ItemsProcessedTotal.WithLabelValues("comments").Inc()

		if watched[comment.ParentID] {
			if err := b.api.RemoveComment(ctx, comment.ID); err != nil {
				log.Error().Err(err).Str("comment_id", comment.ID).Msg("failed to remove sticky reply")
			} else {
				metrics.RemovalsTotal.WithLabelValues("sticky_reply").Inc()
				b.recordEvent(ctx, models.NewModEvent(models.EventRemoval, comment.Domain,
					models.NormalizeUsername(comment.Author), actorBot, "reply to watched sticky"))
			}
			continue
		}

		record, err := b.offenses.Get(ctx, comment.Author, comment.Domain)
		if err != nil {
			log.Error().Err(err).Str("user", comment.Author).Msg("failed to load offense record")
			continue
		}
		if record == nil {
			continue
		}

		if record.ShadowBanned {
			b.removeShadowBanned(ctx, "comment", comment.ID, record.Username)
			continue
		}
		if record.Tracked {
			if err := b.warnings.SendTrackedCopy(ctx, record.Username, "comment",
				"", comment.Body, comment.Permalink); err != nil {
				log.Warn().Err(err).Msg("tracked copy delivery failed")
			}
		}
		if _, err := b.warnings.CheckThresholds(ctx, record); err != nil {
			log.Warn().Err(err).Str("user", record.Username).Msg("threshold check failed")
		}
	}
	return nil
}

// loadFilters purges expired filters and returns the active set.
func (b *Bot) loadFilters(ctx context.Context) ([]models.Filter, error) {
	if err := b.filters.PurgeExpired(ctx, b.domain, b.now()); err != nil {
		return nil, err
	}
	return b.filters.List(ctx, b.domain)
}

// matchFilters removes a submission whose title matches any active filter.
// Returns true when the submission was handled.
func (b *Bot) matchFilters(ctx context.Context, submission *models.Submission, filters []models.Filter) bool {
	for i := range filters {
		if !filters[i].Matches(submission.Title) {
			continue
		}
		if err := b.api.RemoveSubmission(ctx, submission.ID); err != nil {
			log.Error().Err(err).Str("submission_id", submission.ID).Msg("failed to remove filtered submission")
			return true
		}
		metrics.RemovalsTotal.WithLabelValues("filter").Inc()
		b.recordEvent(ctx, models.NewModEvent(models.EventFilterHit, submission.Domain,
			models.NormalizeUsername(submission.Author), actorBot, filters[i].Pattern))
		return true
	}
	return false
}

func (b *Bot) removeShadowBanned(ctx context.Context, kind, id, username string) {
	var err error
	if kind == "comment" {
		err = b.api.RemoveComment(ctx, id)
	} else {
		err = b.api.RemoveSubmission(ctx, id)
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Str("kind", kind).Msg("failed to remove botbanned content")
		return
	}
	metrics.RemovalsTotal.WithLabelValues("shadowban").Inc()
	b.recordEvent(ctx, models.NewModEvent(models.EventRemoval, b.domain, username, actorBot,
		"botbanned user "+kind))
}
