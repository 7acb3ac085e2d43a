package sync

import (
	"context"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
)

// The push adapters share one contract: sanitize the entity, check the
// preconditions (sync enabled, identity resolvable, device online), and issue
// an idempotent upsert or delete keyed by entity id plus owner. Expected
// failure modes (offline, signed out, remote rejection) are never surfaced as
// errors; the adapter optionally enqueues the item and reports "not sent".
// On success the adapter performs no queue mutation itself — the caller owns
// removing any pre-existing queue entry for the key.

func (e *Engine) pushProgress(ctx context.Context, progress *models.UserProgress, queueOnFailure bool) bool {
	payload := ProgressPayload(models.SanitizeProgress(progress))
	identity := e.identity(ctx)
	if identity == nil || !e.connectivity.Online() {
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}

	if err := e.client.UpsertProgress(ctx, identity.OwnerID, progress); err != nil {
		e.log.Err(err).Warn("progress push rejected")
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}
	return true
}

func (e *Engine) pushSession(ctx context.Context, session *models.Session, queueOnFailure bool) bool {
	payload := SessionPayload(models.SanitizeSession(session))
	identity := e.identity(ctx)
	if identity == nil || !e.connectivity.Online() {
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}

	if err := e.client.UpsertSession(ctx, identity.OwnerID, session); err != nil {
		e.log.Err(err).Warn("session push rejected")
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}
	return true
}

func (e *Engine) pushBook(ctx context.Context, book *models.Book, queueOnFailure bool) bool {
	payload := BookPayload(models.SanitizeBook(book))
	identity := e.identity(ctx)
	if identity == nil || !e.connectivity.Online() {
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}

	if err := e.client.UpsertBook(ctx, identity.OwnerID, book); err != nil {
		e.log.Err(err).Warn("book push rejected")
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}
	return true
}

func (e *Engine) deleteBook(ctx context.Context, bookID string, queueOnFailure bool) bool {
	payload := BookDeletionPayload(bookID)
	identity := e.identity(ctx)
	if identity == nil || !e.connectivity.Online() {
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}

	if err := e.client.DeleteBook(ctx, identity.OwnerID, bookID); err != nil {
		e.log.Err(err).Warn("book deletion push rejected")
		e.maybeEnqueue(ctx, payload, queueOnFailure)
		return false
	}
	return true
}

func (e *Engine) maybeEnqueue(ctx context.Context, payload Payload, queueOnFailure bool) {
	if !queueOnFailure {
		return
	}
	if err := e.queue.Enqueue(ctx, payload); err != nil {
		e.log.Err(err).Error("enqueue error")
	}
}

// SyncProgress pushes the singleton progress record, queueing it for retry
// when it can't be sent. A direct success clears any queued progress update.
func (e *Engine) SyncProgress(ctx context.Context, progress *models.UserProgress) bool {
	sent := e.pushProgress(ctx, progress, true)
	e.settle(ctx, ProgressPayload(progress), sent)
	return sent
}

// SyncSession pushes one session record.
func (e *Engine) SyncSession(ctx context.Context, session *models.Session) bool {
	sent := e.pushSession(ctx, session, true)
	e.settle(ctx, SessionPayload(session), sent)
	return sent
}

// SyncBook pushes one full book record. Callers that only touched the
// position columns hand over a partial record, so the content and cover are
// reloaded before the record leaves the device.
func (e *Engine) SyncBook(ctx context.Context, book *models.Book) bool {
	e.hydrateBook(ctx, book)
	sent := e.pushBook(ctx, book, true)
	e.settle(ctx, BookPayload(book), sent)
	return sent
}

// SyncBookDeletion propagates a local book deletion to the remote.
func (e *Engine) SyncBookDeletion(ctx context.Context, bookID string) bool {
	sent := e.deleteBook(ctx, bookID, true)
	e.settle(ctx, BookDeletionPayload(bookID), sent)
	return sent
}

// settle finishes a foreground push: a sent entity's stale queue entry is
// removed, and either way the projected status is refreshed.
func (e *Engine) settle(ctx context.Context, payload Payload, sent bool) {
	if sent {
		if err := e.queue.DeleteByEntityKey(ctx, payload.EntityKey()); err != nil {
			e.log.Err(err).Error("queue cleanup error")
		}
	}
	e.refreshStatus(ctx)
}
