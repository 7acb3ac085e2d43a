package sync

import "time"

const (
	// MaxAttempts is the retry budget. An item that fails this many times
	// stops auto-retrying until a manual flush.
	MaxAttempts = 6

	backoffBase = 5 * time.Second
	backoffCap  = 60 * time.Second
)

// Backoff returns the delay before retry attempt n (1-indexed):
// min(5s * 2^(n-1), 60s).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// 5s << 4 already exceeds the cap; larger shifts would overflow.
	if attempt > 5 {
		return backoffCap
	}
	delay := backoffBase << (attempt - 1)
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}
