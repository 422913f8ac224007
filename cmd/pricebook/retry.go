package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/storage"
)

// busyRetries bounds how often a write is attempted again after the database
// reported itself busy. busy_timeout already waits inside each attempt.
const busyRetries = 3

func newBusyBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}

// retryBusy runs fn and runs it again while storage reports the database
// busy. fn must be safe to repeat. Any other error is returned at once.
func retryBusy(ctx context.Context, operation string, fn func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(newBusyBackOff(), busyRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !storage.IsBusy(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("Database busy, retrying",
			"operation", operation,
			"attempt", attempt,
			"error", err)
		return err
	}, policy)
}
