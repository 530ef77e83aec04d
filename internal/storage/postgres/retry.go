package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Connect opens the store, retrying with exponential backoff while the
// database is still coming up.
func Connect(ctx context.Context, dsn string, maxRetries int, baseDelay time.Duration, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var store *Store
	err := withRetry(ctx, maxRetries, baseDelay, func(ctx context.Context, attempt int) error {
		s, err := NewStore(ctx, dsn)
		if err != nil {
			logger.Warn("postgres connect failed", zap.Int("attempt", attempt+1), zap.Error(err))
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context, attempt int) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
