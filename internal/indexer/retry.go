package indexer

import (
	"context"
	"time"
)

const defaultRetryDelay = 100 * time.Millisecond

// withRetry runs fn until it succeeds, re-attempting up to maxRetries
// additional times with a doubling delay starting at baseDelay. The
// context cancels the wait between attempts; a running fn is expected
// to honor it on its own.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryDelay
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt >= maxRetries {
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
