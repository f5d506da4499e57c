// Package retry wraps transient UI operations in an explicit bounded-retry loop.
package retry

import (
	"context"
	"fmt"
	"time"
)

// DefaultAttempts matches the bounded retry count used for flaky element
// interactions throughout the crawl.
const DefaultAttempts = 3

// Do runs fn up to attempts times, sleeping delay between failures. It returns
// nil on the first success, the last error once attempts are exhausted, and
// ctx.Err() immediately if the context is done between attempts.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last != nil && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := fn(ctx); err != nil {
			last = err
			continue
		}
		return nil
	}

	return fmt.Errorf("gave up after %d attempts: %w", attempts, last)
}
