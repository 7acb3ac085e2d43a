package database

import (
	"context"
	"database/sql"
	"math/rand"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// isBusyError checks if the error is a SQLite BUSY or LOCKED error.
// Works with both mattn/go-sqlite3 and modernc.org/sqlite drivers.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// Check for common SQLite busy/locked error patterns
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "SQLITE_LOCKED") ||
		strings.Contains(errStr, "(5)") || // SQLITE_BUSY error code
		strings.Contains(errStr, "(6)") // SQLITE_LOCKED error code
}

// retryWithBackoff executes a function with exponential backoff on
// SQLITE_BUSY errors.
func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	baseDelay := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !isBusyError(err) {
			return err
		}

		if attempt == maxRetries {
			return err
		}

		// Calculate delay with exponential backoff and jitter
		delay := baseDelay * time.Duration(1<<attempt)
		// Add jitter (up to 25% of delay)
		jitter := time.Duration(rand.Int63n(int64(delay / 4)))
		delay += jitter

		// Cap delay at 2 seconds
		if delay > 2*time.Second {
			delay = 2 * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next retry
		}
	}

	return err
}

// maxTxRetries bounds how many times a busy transaction is re-run before the
// error is surfaced to the caller.
const maxTxRetries = 5

// RunInTx runs fn inside a transaction and re-runs the whole transaction when
// SQLite reports lock contention. Every multi-collection write in the app
// goes through this so a reader never observes a half-applied group (e.g. a
// book without its library index row).
func RunInTx(ctx context.Context, db *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	return retryWithBackoff(ctx, maxTxRetries, func() error {
		return db.RunInTx(ctx, &sql.TxOptions{}, fn)
	})
}
