package bot

import (
	"context"
	"fmt"

	"github.com/modwarden/backend/internal/metrics"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/notify"
	"github.com/rs/zerolog/log"
)

// monitorQueue warns operators when the moderation queue backs up. One
// warning per cooldown window, no matter how long the queue stays over the
// threshold.
func (b *Bot) monitorQueue(ctx context.Context) error {
	size, err := b.api.ModQueueSize(ctx, b.domain, b.cfg.QueueWarnThreshold+1)
	if err != nil {
		b.warnPermissionDenied(ctx, "queue", err)
		return fmt.Errorf("failed to fetch mod queue size: %w", err)
	}
	if size <= b.cfg.QueueWarnThreshold {
		return nil
	}

	now := b.now()
	if now.Sub(b.lastQueueWarn) < b.cfg.QueueWarnCooldown {
		return nil
	}
	b.lastQueueWarn = now

	message := notify.NewMessage("")
	message.AddAttachment(
		"Moderation queue is backed up",
		"",
		fmt.Sprintf("There are more than %d items in the moderation queue. Please clean the queue.", b.cfg.QueueWarnThreshold),
		notify.ColorWarning,
	)
	if err := b.webhook.Send(ctx, message); err != nil {
		log.Warn().Err(err).Msg("failed to deliver queue warning")
		return nil
	}
	metrics.NotificationsTotal.WithLabelValues("queue").Inc()
	b.recordEvent(ctx, models.NewModEvent(models.EventQueueWarning, b.domain, "", actorBot,
		fmt.Sprintf("queue size over %d", b.cfg.QueueWarnThreshold)))
	return nil
}
