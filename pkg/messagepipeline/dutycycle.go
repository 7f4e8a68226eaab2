package messagepipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DutyCycle is the open/closed cadence of a subscription.
type DutyCycle struct {
	// ClosedFor is how long delivery stays off before each open period.
	ClosedFor time.Duration
	// OpenFor is how long delivery stays on.
	OpenFor time.Duration
	// CloseTimeout bounds how long Close may wait for the receive loop.
	CloseTimeout time.Duration
}

// DefaultDutyCycle mirrors the worker's historical 2s off / 10s on cadence.
func DefaultDutyCycle() DutyCycle {
	return DutyCycle{
		ClosedFor:    2 * time.Second,
		OpenFor:      10 * time.Second,
		CloseTimeout: 30 * time.Second,
	}
}

// RunDutyCycle alternates the consumer between closed and open until ctx is
// cancelled. Open and close failures are logged and the loop carries on.
func RunDutyCycle(ctx context.Context, consumer MessageConsumer, cycle DutyCycle, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "DutyCycle").Logger()
	if cycle.CloseTimeout <= 0 {
		cycle.CloseTimeout = DefaultDutyCycle().CloseTimeout
	}

	closeConsumer := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cycle.CloseTimeout)
		defer cancel()
		if err := consumer.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to close subscriber")
			return
		}
		logger.Info().Msg("Close Subscriber")
	}

	for {
		if !sleep(ctx, cycle.ClosedFor) {
			return ctx.Err()
		}

		if err := consumer.Open(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to open subscriber")
		} else {
			logger.Info().Msg("Open Subscriber")
		}

		if !sleep(ctx, cycle.OpenFor) {
			closeConsumer()
			return ctx.Err()
		}

		closeConsumer()
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
