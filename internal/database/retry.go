package database

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff calls fn up to attempts times, sleeping delay between
// failed attempts. It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, fn func() error, attempts int, delay time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", i+1, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
