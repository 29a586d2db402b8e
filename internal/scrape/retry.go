package scrape

import (
	"context"
	"log/slog"
	"time"
)

// withRetry runs op up to attempts times with a fixed delay between tries.
// Delays are interruptible through the context. The last error is returned
// when every attempt fails.
func withRetry(ctx context.Context, attempts int, delay time.Duration, logger *slog.Logger, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		logger.WarnContext(ctx, "attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.String("error", lastErr.Error()))

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return lastErr
}
