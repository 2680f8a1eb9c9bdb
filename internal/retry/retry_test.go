// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	BaseDelay = 1 * time.Millisecond
}

var errBusy = errors.New("disk busy")

func always(error) bool { return true }

func TestDo_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, always, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, always, func() error {
		calls++
		if calls <= 2 {
			return errBusy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 2, always, func() error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestDo_ZeroRetriesRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 0, always, func() error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableStops(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, func(error) bool { return false }, func() error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	old := BaseDelay
	BaseDelay = time.Hour
	defer func() { BaseDelay = old }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, 3, always, func() error { return errBusy })
	assert.ErrorIs(t, err, context.Canceled)
}
