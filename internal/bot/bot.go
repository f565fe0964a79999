package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/modwarden/backend/config"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/notify"
	"github.com/modwarden/backend/internal/platform"
	"github.com/rs/zerolog/log"
)

// Command-surface status errors. These are expected outcomes, distinguished
// from storage failures so handlers can map them to clean responses.
var (
	ErrBotbansDisabled  = errors.New("botbans are not enabled")
	ErrTrackingDisabled = errors.New("user tracking is not enabled")
)

const actorBot = "modwarden"

// Bot ties the scanners together: it owns the polling loops and the shared
// ledgers, and exposes the operator commands the HTTP surface maps onto.
type Bot struct {
	cfg    config.BotConfig
	domain string

	api      ModerationAPI
	seen     SeenLedger
	offenses OffenseLedger
	filters  FilterStore
	stickies StickyStore
	events   EventStore
	publisher EventPublisher
	webhook  Notifier
	notes    AnnotationSink

	warnings *Warnings
	flair    *FlairEnforcer

	now func() time.Time

	// Permission problems are surfaced to operators once per scanner
	// startup, not once per item.
	permMu     sync.Mutex
	permWarned map[string]bool

	lastQueueWarn time.Time
}

// New wires up a Bot. The notes sink and publisher may be nil when those
// modules are disabled.
func New(
	cfg config.BotConfig,
	api ModerationAPI,
	seen SeenLedger,
	offenses OffenseLedger,
	unflaired UnflairedStore,
	filters FilterStore,
	stickies StickyStore,
	events EventStore,
	publisher EventPublisher,
	webhook Notifier,
	notes AnnotationSink,
) *Bot {
	b := &Bot{
		cfg:        cfg,
		domain:     cfg.Domain,
		api:        api,
		seen:       seen,
		offenses:   offenses,
		filters:    filters,
		stickies:   stickies,
		events:     events,
		publisher:  publisher,
		webhook:    webhook,
		notes:      notes,
		now:        time.Now,
		permWarned: make(map[string]bool),
	}

	b.warnings = &Warnings{
		domain:              cfg.Domain,
		commentThreshold:    cfg.CommentThreshold,
		submissionThreshold: cfg.SubmissionThreshold,
		banThreshold:        cfg.BanThreshold,
		cooldown:            cfg.WarnCooldown,
		botbans:             cfg.EnableBotbans,
		offenses:            offenses,
		webhook:             webhook,
		now:                 func() time.Time { return b.now() },
	}

	b.flair = &FlairEnforcer{
		domain:      cfg.Domain,
		gracePeriod: cfg.GracePeriod,
		overtime:    cfg.Overtime,
		api:         api,
		store:       unflaired,
		record:      b.recordEvent,
		now:         func() time.Time { return b.now() },
	}

	return b
}

// Warnings exposes the notifier for callers outside the scan loops.
func (b *Bot) Warnings() *Warnings { return b.warnings }

// Start launches the scanner loops and blocks until ctx is cancelled and
// all loops have finished their in-flight pass.
func (b *Bot) Start(ctx context.Context) {
	if b.cfg.EnableFlair {
		if err := b.flair.LoadCatalog(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to load flair catalog, flair enforcement degraded")
		}
	}

	var wg sync.WaitGroup
	run := func(name string, interval time.Duration, pass passFunc) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runLoop(ctx, name, interval, pass)
		}()
	}

	run("modlog", b.cfg.PollInterval, b.scanModLog)
	run("stream", b.cfg.PollInterval, b.scanStream)
	run("dedup_sweep", time.Hour, b.sweepSeen)
	if b.cfg.EnableFlair {
		run("flair", b.cfg.PollInterval, b.flair.Run)
	}
	if b.cfg.WatchQueue {
		run("queue", 30*time.Minute, b.monitorQueue)
	}

	wg.Wait()
}

// Botban flags a user so their new content is removed automatically. Returns
// false when the user was already botbanned.
func (b *Bot) Botban(ctx context.Context, username, author string) (bool, error) {
	if !b.cfg.EnableBotbans {
		return false, ErrBotbansDisabled
	}
	changed, err := b.offenses.SetFlag(ctx, username, b.domain, models.FlagShadowBanned, true)
	if err != nil {
		return false, fmt.Errorf("failed to botban %s: %w", username, err)
	}
	if changed {
		b.recordEvent(ctx, models.NewModEvent(models.EventBotban, b.domain, models.NormalizeUsername(username), author, ""))
	}
	return changed, nil
}

// Unbotban lifts a botban. Returns false when the user was not botbanned.
func (b *Bot) Unbotban(ctx context.Context, username, author string) (bool, error) {
	if !b.cfg.EnableBotbans {
		return false, ErrBotbansDisabled
	}
	changed, err := b.offenses.SetFlag(ctx, username, b.domain, models.FlagShadowBanned, false)
	if err != nil {
		return false, fmt.Errorf("failed to unbotban %s: %w", username, err)
	}
	if changed {
		b.recordEvent(ctx, models.NewModEvent(models.EventUnbotban, b.domain, models.NormalizeUsername(username), author, ""))
	}
	return changed, nil
}

// Track marks a user so their new content is forwarded to the chat channel.
func (b *Bot) Track(ctx context.Context, username, author string) (bool, error) {
	if !b.cfg.EnableTracking {
		return false, ErrTrackingDisabled
	}
	changed, err := b.offenses.SetFlag(ctx, username, b.domain, models.FlagTracked, true)
	if err != nil {
		return false, fmt.Errorf("failed to track %s: %w", username, err)
	}
	if changed {
		b.recordEvent(ctx, models.NewModEvent(models.EventTrack, b.domain, models.NormalizeUsername(username), author, ""))
	}
	return changed, nil
}

// Untrack stops forwarding a user's content.
func (b *Bot) Untrack(ctx context.Context, username, author string) (bool, error) {
	if !b.cfg.EnableTracking {
		return false, ErrTrackingDisabled
	}
	changed, err := b.offenses.SetFlag(ctx, username, b.domain, models.FlagTracked, false)
	if err != nil {
		return false, fmt.Errorf("failed to untrack %s: %w", username, err)
	}
	if changed {
		b.recordEvent(ctx, models.NewModEvent(models.EventUntrack, b.domain, models.NormalizeUsername(username), author, ""))
	}
	return changed, nil
}

// MuteWarnings suppresses threshold notifications for a user. Counters keep
// accumulating.
func (b *Bot) MuteWarnings(ctx context.Context, username string, muted bool) (bool, error) {
	changed, err := b.offenses.SetFlag(ctx, username, b.domain, models.FlagWarningsMuted, muted)
	if err != nil {
		return false, fmt.Errorf("failed to update warning mute for %s: %w", username, err)
	}
	return changed, nil
}

// AddFilter installs a content filter for new submission titles.
func (b *Bot) AddFilter(ctx context.Context, pattern string, isRegex bool, expiresAt *time.Time) error {
	filter := &models.Filter{
		Pattern:   pattern,
		IsRegex:   isRegex,
		Domain:    b.domain,
		ExpiresAt: expiresAt,
	}
	if err := b.filters.Create(ctx, filter); err != nil {
		return err
	}
	return nil
}

// RemoveFilter deletes a content filter by pattern.
func (b *Bot) RemoveFilter(ctx context.Context, pattern string) error {
	return b.filters.Delete(ctx, b.domain, pattern)
}

// SendModmail forwards an operator message to the domain's moderator inbox.
func (b *Bot) SendModmail(ctx context.Context, body, author string) error {
	body += "\n\n---\n\nMessage relayed from chat by @" + author
	return b.api.ComposeModmail(ctx, b.domain, "Message relayed from chat", body)
}

// recordEvent stores an audit event and fans it out to live subscribers.
// Both sides are best-effort: the audit trail must never block moderation.
func (b *Bot) recordEvent(ctx context.Context, event *models.ModEvent) {
	if err := b.events.Create(ctx, event); err != nil {
		log.Error().Err(err).Str("kind", event.Kind).Msg("failed to record mod event")
	}
	if b.publisher != nil {
		if err := b.publisher.PublishModEvent(ctx, event); err != nil {
			log.Warn().Err(err).Str("kind", event.Kind).Msg("failed to publish mod event")
		}
	}
}

// sweepSeen evicts expired dedup entries; failures are logged, not fatal.
func (b *Bot) sweepSeen(ctx context.Context) error {
	removed, err := b.seen.Sweep(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("seen ledger: swept expired ids")
	}
	return nil
}

// warnPermissionDenied surfaces a missing-scope problem to operators once
// per scanner, then goes quiet to avoid spamming the channel.
func (b *Bot) warnPermissionDenied(ctx context.Context, scanner string, err error) {
	if !errors.Is(err, platform.ErrPermissionDenied) {
		return
	}
	b.permMu.Lock()
	warned := b.permWarned[scanner]
	b.permWarned[scanner] = true
	b.permMu.Unlock()
	if warned {
		return
	}

	message := notify.NewMessage("")
	message.AddAttachment(
		fmt.Sprintf("Warning: %s scanner lacks API permissions", scanner),
		"",
		err.Error(),
		notify.ColorDanger,
	)
	if sendErr := b.webhook.Send(ctx, message); sendErr != nil {
		log.Warn().Err(sendErr).Msg("failed to deliver permission warning")
	}
}
