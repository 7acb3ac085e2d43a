package sync

import (
	"context"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// ProcessQueue replays every due queue item through its push adapter. Items
// that are sent are deleted; items that fail get their retry bookkeeping
// bumped. Running it twice back to back is a no-op the second time.
func (e *Engine) ProcessQueue(ctx context.Context) error {
	return e.processQueue(ctx, false)
}

// Flush re-attempts every queued item immediately, including terminally
// failed ones. It resets nothing; it just ignores the schedule once.
func (e *Engine) Flush(ctx context.Context) error {
	return e.processQueue(ctx, true)
}

func (e *Engine) processQueue(ctx context.Context, force bool) error {
	e.beginCycle()
	defer e.endCycle(ctx)

	if err := e.queue.Compact(ctx); err != nil {
		return err
	}

	items, err := e.queue.Items(ctx)
	if err != nil {
		return err
	}

	now := e.now().UnixMilli()
	for _, item := range items {
		if !force {
			// Parked items (nil schedule with attempts spent) and items whose
			// backoff hasn't elapsed are skipped.
			if item.NextRetryAt == nil && item.RetryAttempts >= MaxAttempts {
				continue
			}
			if item.NextRetryAt != nil && *item.NextRetryAt > now {
				continue
			}
		}

		if e.replayItem(ctx, item) {
			if err := e.queue.Delete(ctx, item.ID); err != nil {
				e.log.Err(err).Error("queue delete error")
			}
			continue
		}

		if err := e.queue.RecordFailure(ctx, item, e.describeFailure()); err != nil {
			e.log.Err(err).Error("queue bookkeeping error")
		}
	}

	return e.queue.Compact(ctx)
}

// replayItem dispatches one queue row to its adapter. The adapter must not
// re-enqueue (the processor owns retry bookkeeping), so queueOnFailure is
// always false here. A payload that can't even be decoded counts as a failed
// attempt rather than crashing the pass.
func (e *Engine) replayItem(ctx context.Context, item *models.SyncItem) bool {
	payload, err := decodePayload(item)
	if err != nil {
		e.log.Err(err).Error("corrupt queue payload", logger.Data{"item_id": item.ID, "type": string(item.Type)})
		return false
	}

	switch item.Type {
	case models.SyncItemUpdateProgress:
		return e.pushProgress(ctx, payload.Progress, false)
	case models.SyncItemSyncSession:
		return e.pushSession(ctx, payload.Session, false)
	case models.SyncItemSyncBook:
		return e.pushBook(ctx, payload.Book, false)
	case models.SyncItemDeleteBook:
		return e.deleteBook(ctx, payload.BookID, false)
	default:
		return false
	}
}

// describeFailure reports why the last attempt could not send, for the
// status projection. The remote's own error text is already logged by the
// adapters; the queue row only needs a coarse cause.
func (e *Engine) describeFailure() string {
	if !e.enabled {
		return "cloud sync disabled"
	}
	if e.identity(context.Background()) == nil {
		return "no signed-in account"
	}
	if !e.connectivity.Online() {
		return "device offline"
	}
	return "remote rejected the request"
}
