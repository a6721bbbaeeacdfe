package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, doubling the delay between tries starting
// at baseDelay. It returns nil on the first success, the last error after the
// final attempt, or the context error if the context is cancelled while
// waiting.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
