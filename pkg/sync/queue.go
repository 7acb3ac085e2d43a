package sync

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/database"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Queue owns the durable retry queue. Every mutation reads, modifies, and
// rewrites the queue inside one transaction, so no finer locking is needed.
type Queue struct {
	db  *bun.DB
	now func() time.Time
}

func NewQueue(db *bun.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

// Enqueue records a pending mutation. If an item with the same entity key is
// already queued, its payload and timestamp are overwritten while the retry
// bookkeeping (attempts, backoff, last error) is deliberately kept, so rapid
// re-edits of the same entity never restart a retry storm. The queue is
// compacted in the same transaction.
func (q *Queue) Enqueue(ctx context.Context, payload Payload) error {
	data, err := payload.marshal()
	if err != nil {
		return err
	}

	entityKey := payload.EntityKey()
	timestamp := q.now().UnixMilli()

	return database.RunInTx(ctx, q.db, func(ctx context.Context, tx bun.Tx) error {
		existing := []*models.SyncItem{}
		err := tx.NewSelect().
			Model(&existing).
			Where("entity_key = ?", entityKey).
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if len(existing) > 0 {
			item := existing[0]
			item.Payload = data
			item.Timestamp = timestamp
			_, err = tx.NewUpdate().
				Model(item).
				Column("payload", "timestamp").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		} else {
			item := &models.SyncItem{
				ID:        uuid.New().String(),
				Type:      payload.Type(),
				EntityKey: entityKey,
				Payload:   data,
				Timestamp: timestamp,
			}
			_, err = tx.NewInsert().Model(item).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return compactTx(ctx, tx)
	})
}

// Compact de-duplicates the queue by entity key, keeping the most recently
// created or updated item per key.
func (q *Queue) Compact(ctx context.Context) error {
	return database.RunInTx(ctx, q.db, func(ctx context.Context, tx bun.Tx) error {
		return compactTx(ctx, tx)
	})
}

func compactTx(ctx context.Context, tx bun.Tx) error {
	items := []*models.SyncItem{}
	err := tx.NewSelect().Model(&items).Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(items) == 0 {
		return nil
	}

	// Sort ascending so the survivor per key is the one encountered last,
	// i.e. the most recently created/updated.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Timestamp != items[j].Timestamp {
			return items[i].Timestamp < items[j].Timestamp
		}
		return items[i].ID < items[j].ID
	})

	survivors := map[string]*models.SyncItem{}
	for _, item := range items {
		survivors[item.EntityKey] = item
	}
	if len(survivors) == len(items) {
		return nil
	}

	_, err = tx.NewDelete().Model((*models.SyncItem)(nil)).Where("1=1").Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	deduped := make([]*models.SyncItem, 0, len(survivors))
	for _, item := range survivors {
		deduped = append(deduped, item)
	}
	_, err = tx.NewInsert().Model(&deduped).Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Items returns the whole queue ordered by creation/update time.
func (q *Queue) Items(ctx context.Context) ([]*models.SyncItem, error) {
	items := []*models.SyncItem{}
	err := q.db.NewSelect().
		Model(&items).
		Order("timestamp ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return items, nil
}

// Delete removes a queue row, typically after its push succeeded.
func (q *Queue) Delete(ctx context.Context, id string) error {
	_, err := q.db.NewDelete().
		Model((*models.SyncItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteByEntityKey removes any queued mutation for the given logical record.
// Callers use this after a direct push succeeds outside queue processing.
func (q *Queue) DeleteByEntityKey(ctx context.Context, entityKey string) error {
	_, err := q.db.NewDelete().
		Model((*models.SyncItem)(nil)).
		Where("entity_key = ?", entityKey).
		Exec(ctx)
	return errors.WithStack(err)
}

// RecordFailure bumps an item's retry bookkeeping after a failed attempt.
// Once the retry budget is exhausted the item is parked (nil nextRetryAt)
// until a manual flush.
func (q *Queue) RecordFailure(ctx context.Context, item *models.SyncItem, cause string) error {
	item.RetryAttempts++
	item.LastError = cause
	if item.RetryAttempts >= MaxAttempts {
		item.NextRetryAt = nil
	} else {
		next := q.now().Add(Backoff(item.RetryAttempts)).UnixMilli()
		item.NextRetryAt = &next
	}

	_, err := q.db.NewUpdate().
		Model(item).
		Column("retry_attempts", "next_retry_at", "last_error").
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}
