package main

import (
	"context"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryBusy(t *testing.T) {
	ctx := context.Background()

	t.Run("retries busy errors until success", func(t *testing.T) {
		calls := 0
		err := retryBusy(ctx, "test", func() error {
			calls++
			if calls < 3 {
				return sqlite3.Error{Code: sqlite3.ErrBusy}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on other errors", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := retryBusy(ctx, "test", func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		calls := 0
		err := retryBusy(ctx, "test", func() error {
			calls++
			return sqlite3.Error{Code: sqlite3.ErrLocked}
		})
		require.Error(t, err)
		assert.Equal(t, busyRetries+1, calls)
	})

	t.Run("stops when the context is canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		calls := 0
		err := retryBusy(canceled, "test", func() error {
			calls++
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
