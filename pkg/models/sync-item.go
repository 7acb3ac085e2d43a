package models

import (
	"github.com/uptrace/bun"
)

// SyncItemType tags what kind of mutation a queue row replays.
type SyncItemType string

const (
	SyncItemUpdateProgress SyncItemType = "UPDATE_PROGRESS"
	SyncItemSyncSession    SyncItemType = "SYNC_SESSION"
	SyncItemSyncBook       SyncItemType = "SYNC_BOOK"
	SyncItemDeleteBook     SyncItemType = "DELETE_BOOK"
)

// SyncItem is one durable retry-queue row. At most one row exists per
// EntityKey; a newer enqueue for the same key replaces the payload and
// timestamp but keeps the retry bookkeeping.
type SyncItem struct {
	bun.BaseModel `bun:"table:sync_queue,alias:sq"`

	ID            string       `bun:",pk" json:"id"`
	Type          SyncItemType `bun:"type" json:"type"`
	EntityKey     string       `bun:"entity_key" json:"entityKey"`
	Payload       []byte       `bun:"payload" json:"payload"`
	RetryAttempts int          `bun:"retry_attempts" json:"retryAttempts"`
	NextRetryAt   *int64       `bun:"next_retry_at" json:"nextRetryAt"`
	LastError     string       `bun:"last_error,nullzero" json:"lastError,omitempty"`
	Timestamp     int64        `bun:"timestamp" json:"timestamp"`
}
