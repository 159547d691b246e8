package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	maxRetries = 3
	retryDelay = 10 * time.Millisecond
)

// isRetryableError reports whether err is transient: a connection failure
// pgx knows happened before anything was sent, a serialization failure or
// a deadlock.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		case "08000", "08003", "08006": // connection errors
			return true
		}
	}

	return false
}

// retry runs op until it succeeds, fails with a non-retryable error or
// maxRetries attempts are used up. Delays double from retryDelay.
func retry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := range maxRetries {
		if attempt > 0 {
			delay := retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}

		var err error
		result, err = op()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return result, err
		}
	}

	return result, fmt.Errorf("query failed after %d attempts: %w", maxRetries, lastErr)
}

// Query runs fn with a Queries instance, retrying transient errors.
func Query(ctx context.Context, fn func(*Queries) error) error {
	_, err := retry(ctx, func() (struct{}, error) {
		return struct{}{}, fn(New(defaultPool))
	})
	return err
}

// Query1 runs fn and returns its single result, retrying transient errors.
func Query1[T any](ctx context.Context, fn func(*Queries) (T, error)) (T, error) {
	return retry(ctx, func() (T, error) {
		return fn(New(defaultPool))
	})
}

// Tx runs fn within a transaction. The whole transaction is retried on
// transient errors.
func Tx(ctx context.Context, fn func(*Queries) error) error {
	_, err := Tx1(ctx, func(q *Queries) (struct{}, error) {
		return struct{}{}, fn(q)
	})
	return err
}

// Tx1 runs fn within a transaction and returns its result.
func Tx1[T any](ctx context.Context, fn func(*Queries) (T, error)) (T, error) {
	return retry(ctx, func() (T, error) {
		var zero T

		tx, err := defaultPool.Begin(ctx)
		if err != nil {
			return zero, err
		}
		defer tx.Rollback(ctx)

		result, err := fn(New(tx))
		if err != nil {
			return zero, err
		}

		if err := tx.Commit(ctx); err != nil {
			return zero, err
		}
		return result, nil
	})
}
