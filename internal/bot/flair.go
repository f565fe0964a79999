package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/modwarden/backend/internal/metrics"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/platform"
	"github.com/rs/zerolog/log"
)

// FlairEnforcer removes unflaired submissions past their grace period and
// restores them once the author picks a flair, either through the platform
// UI or by replying to the bot's comment with a flair label. State lives in
// the unflaired store so enforcement survives restarts.
type FlairEnforcer struct {
	domain      string
	gracePeriod time.Duration
	overtime    time.Duration

	api    ModerationAPI
	store  UnflairedStore
	record func(ctx context.Context, event *models.ModEvent)
	now    func() time.Time

	mu      sync.Mutex
	catalog []models.FlairChoice
}

// LoadCatalog primes the flair catalog from the newest submission. A failure
// here only degrades the instructional comment until the first per-submission
// fetch succeeds.
func (f *FlairEnforcer) LoadCatalog(ctx context.Context) error {
	submissions, err := f.api.NewSubmissions(ctx, f.domain, 1)
	if err != nil {
		return fmt.Errorf("failed to fetch a submission for catalog load: %w", err)
	}
	if len(submissions) == 0 {
		return errors.New("no submissions available to load flair catalog from")
	}
	_, err = f.choicesFor(ctx, submissions[0].ID)
	return err
}

// Consider looks at one sighting of a submission. Nothing happens until the
// grace period has elapsed; after that the submission is removed, the bot
// posts an instructional comment, and the pair is persisted for rechecking.
// If the comment cannot be posted the submission is left untouched so the
// next pass retries the whole step.
func (f *FlairEnforcer) Consider(ctx context.Context, submission *models.Submission) {
	if submission.Flaired() {
		return
	}
	if f.now().Sub(submission.CreatedAt) < f.gracePeriod {
		return
	}

	tracked, err := f.store.Exists(ctx, submission.ID)
	if err != nil {
		log.Error().Err(err).Str("submission_id", submission.ID).Msg("failed to check unflaired store")
		return
	}
	if tracked {
		return
	}

	choices, err := f.choicesFor(ctx, submission.ID)
	if err != nil {
		log.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to fetch flair choices")
		return
	}

	comment, err := f.api.PostComment(ctx, submission.ID, buildFlairComment(submission.Author, f.domain, choices))
	if err != nil {
		log.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to post flair comment")
		return
	}
	if err := f.api.DistinguishComment(ctx, comment.ID); err != nil {
		log.Warn().Err(err).Str("comment_id", comment.ID).Msg("failed to distinguish flair comment")
	}
	if err := f.api.RemoveSubmission(ctx, submission.ID); err != nil {
		log.Error().Err(err).Str("submission_id", submission.ID).Msg("failed to remove unflaired submission")
		return
	}

	err = f.store.Create(ctx, &models.UnflairedSubmission{
		SubmissionID: submission.ID,
		CommentID:    comment.ID,
		Domain:       submission.Domain,
		Author:       submission.Author,
		SubmittedAt:  submission.CreatedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("submission_id", submission.ID).Msg("failed to persist unflaired submission")
		return
	}

	metrics.RemovalsTotal.WithLabelValues("unflaired").Inc()
	metrics.UnflairedLive.Inc()
	f.record(ctx, models.NewModEvent(models.EventFlairRemoved, submission.Domain,
		models.NormalizeUsername(submission.Author), actorBot, submission.Title))
}

// Run rechecks every tracked submission: restore the flaired ones, apply
// flairs chosen by reply, and give up on submissions past overtime.
func (f *FlairEnforcer) Run(ctx context.Context) error {
	tracked, err := f.store.List(ctx, f.domain)
	if err != nil {
		return fmt.Errorf("failed to list unflaired submissions: %w", err)
	}

	for i := range tracked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.recheck(ctx, &tracked[i]); err != nil {
			if errors.Is(err, platform.ErrTransient) {
				return err
			}
			log.Error().Err(err).Str("submission_id", tracked[i].SubmissionID).Msg("flair recheck failed")
		}
	}
	return nil
}

func (f *FlairEnforcer) recheck(ctx context.Context, record *models.UnflairedSubmission) error {
	submission, err := f.api.Submission(ctx, record.SubmissionID)
	if errors.Is(err, platform.ErrNotFound) {
		// Author deleted the submission; nothing left to enforce.
		return f.drop(ctx, record, models.EventFlairAbandoned, "submission deleted")
	}
	if err != nil {
		return err
	}

	if submission.Flaired() {
		return f.resolve(ctx, record, submission)
	}

	flaired, err := f.applyReplyFlair(ctx, record, submission)
	if err != nil {
		return err
	}
	if flaired {
		return f.resolve(ctx, record, submission)
	}

	if f.now().Sub(record.SubmittedAt) >= f.overtime {
		return f.drop(ctx, record, models.EventFlairAbandoned, "grace and overtime expired")
	}
	return nil
}

// applyReplyFlair scans the submission's comments for a short reply from the
// author naming a flair, and applies the first match.
func (f *FlairEnforcer) applyReplyFlair(ctx context.Context, record *models.UnflairedSubmission, submission *models.Submission) (bool, error) {
	choices, err := f.choicesFor(ctx, submission.ID)
	if err != nil {
		return false, err
	}
	comments, err := f.api.SubmissionComments(ctx, submission.ID)
	if err != nil {
		return false, err
	}

	for i := range comments {
		comment := &comments[i]
		if !strings.EqualFold(comment.Author, record.Author) {
			continue
		}
		words := strings.Fields(comment.Body)
		if len(words) >= 4 {
			continue
		}
		for _, word := range words {
			word = strings.Trim(strings.ToLower(word), `'"`)
			for _, choice := range choices {
				if word != strings.ToLower(choice.Label) {
					continue
				}
				if err := f.api.SelectFlair(ctx, submission.ID, choice); err != nil {
					return false, fmt.Errorf("failed to select flair %q: %w", choice.Label, err)
				}
				if err := f.api.RemoveComment(ctx, comment.ID); err != nil {
					log.Warn().Err(err).Str("comment_id", comment.ID).Msg("failed to remove flair reply")
				}
				return true, nil
			}
		}
	}
	return false, nil
}

// resolve re-approves a now-flaired submission, re-files any report it
// carried, and cleans up the bot comment and stored state.
func (f *FlairEnforcer) resolve(ctx context.Context, record *models.UnflairedSubmission, submission *models.Submission) error {
	if err := f.api.ApproveSubmission(ctx, submission.ID); err != nil {
		return fmt.Errorf("failed to re-approve %s: %w", submission.ID, err)
	}
	if submission.Report != "" {
		if err := f.api.ReportSubmission(ctx, submission.ID, submission.Report); err != nil {
			log.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to re-file report")
		}
	}
	return f.drop(ctx, record, models.EventFlairResolved, submission.FlairText)
}

// drop removes the bot comment and the stored record, then logs the outcome.
func (f *FlairEnforcer) drop(ctx context.Context, record *models.UnflairedSubmission, kind, detail string) error {
	if err := f.api.RemoveComment(ctx, record.CommentID); err != nil && !errors.Is(err, platform.ErrNotFound) {
		log.Warn().Err(err).Str("comment_id", record.CommentID).Msg("failed to remove flair comment")
	}
	if err := f.store.Delete(ctx, record.SubmissionID); err != nil {
		return fmt.Errorf("failed to delete unflaired record %s: %w", record.SubmissionID, err)
	}
	metrics.UnflairedLive.Dec()
	f.record(ctx, models.NewModEvent(kind, record.Domain,
		models.NormalizeUsername(record.Author), actorBot, detail))
	return nil
}

// choicesFor fetches the selectable flairs for a submission, falling back to
// the cached catalog when the fetch fails.
func (f *FlairEnforcer) choicesFor(ctx context.Context, submissionID string) ([]models.FlairChoice, error) {
	choices, err := f.api.FlairChoices(ctx, submissionID)
	if err == nil && len(choices) > 0 {
		f.mu.Lock()
		f.catalog = choices
		f.mu.Unlock()
		return choices, nil
	}

	f.mu.Lock()
	cached := f.catalog
	f.mu.Unlock()
	if len(cached) > 0 {
		return cached, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, errors.New("no flair choices available")
}

func buildFlairComment(author, domain string, choices []models.FlairChoice) string {
	var sb strings.Builder
	example := choices[0].Label

	fmt.Fprintf(&sb, "Hi @%s,\n\n", author)
	sb.WriteString("It looks like you haven't assigned a category flair to your submission, so it has been automatically removed. ")
	sb.WriteString("Shortly after you assign one, your submission will be **automatically re-approved** and this message will be deleted.\n\n")
	sb.WriteString("**How to flair your submission:**\n\n")
	sb.WriteString("* Pick a category with the *flair* control under your submission.\n\n")
	fmt.Fprintf(&sb, "* Or reply to this message with the flair you want. (Example: for the %s flair, reply with \"%s\", without the quotes.)\n\n", example, strings.ToLower(example))
	sb.WriteString("**Available flairs:**\n\n")
	for _, choice := range choices {
		sb.WriteString("* " + choice.Label + "\n\n")
	}
	sb.WriteString("---\n\n*I am a bot, and this action was performed automatically. ")
	fmt.Fprintf(&sb, "Please contact the moderators of %s if you have any questions or concerns.*", domain)
	return sb.String()
}
