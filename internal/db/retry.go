package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	pingAttempts = 5
	pingBackoff  = 250 * time.Millisecond
)

// pingWithRetry retries ping with exponential backoff, giving up after
// pingAttempts calls.
func pingWithRetry(ctx context.Context, log *slog.Logger, ping func(context.Context) error) error {
	backoff := retry.WithMaxRetries(pingAttempts-1, retry.NewExponential(pingBackoff))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			log.Warn("database not ready", slog.Int("attempt", attempt), slog.Any("error", err))
			return retry.RetryableError(err)
		}
		return nil
	})
}
