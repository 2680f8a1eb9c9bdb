// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"math"
	"time"
)

// BaseDelay controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var BaseDelay = 2 * time.Second

// Do calls fn, retrying up to maxRetries times while retryable(err) is true.
// The delay starts at BaseDelay and doubles each attempt: 2 s, 4 s, 8 s.
//
// When maxRetries is 0 fn runs exactly once. If the context is cancelled
// during a backoff wait Do returns ctx.Err(). After exhausting retries the
// last error from fn is returned unchanged.
func Do(ctx context.Context, maxRetries int, retryable func(error) bool, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || attempt >= maxRetries || !retryable(err) {
			return err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * BaseDelay
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
