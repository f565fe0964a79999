package bot

import (
	"context"
	"errors"
	"time"

	"github.com/modwarden/backend/internal/metrics"
	"github.com/modwarden/backend/internal/platform"
	"github.com/rs/zerolog/log"
)

// ErrHalt makes a supervised loop stop permanently. Passes return it only
// for conditions that retrying cannot fix.
var ErrHalt = errors.New("halt scanner")

const transientRetryDelay = 5 * time.Second

// passFunc runs one scan pass. Per-item failures are handled inside the
// pass; an error return means the whole pass failed and should be retried.
type passFunc func(ctx context.Context) error

// runLoop runs a scan pass on a fixed interval until the context is
// cancelled. Transient platform errors retry the pass after a short delay
// instead of waiting out the full interval; anything wrapping ErrHalt stops
// the loop for good; other errors are logged and the next interval proceeds
// normally.
func runLoop(ctx context.Context, name string, interval time.Duration, pass passFunc) {
	log.Info().Str("scanner", name).Dur("interval", interval).Msg("scanner started")

	for {
		err := pass(ctx)
		switch {
		case err == nil:
			metrics.ScanPassesTotal.WithLabelValues(name).Inc()
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			log.Info().Str("scanner", name).Msg("scanner stopped")
			return
		case errors.Is(err, ErrHalt):
			log.Error().Err(err).Str("scanner", name).Msg("scanner halted")
			return
		case errors.Is(err, platform.ErrTransient):
			log.Warn().Err(err).Str("scanner", name).Msg("transient error, retrying pass")
			if !sleep(ctx, transientRetryDelay) {
				return
			}
			continue
		default:
			log.Error().Err(err).Str("scanner", name).Msg("scan pass failed")
		}

		if !sleep(ctx, interval) {
			log.Info().Str("scanner", name).Msg("scanner stopped")
			return
		}
	}
}

// sleep waits for d, returning false if the context was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
