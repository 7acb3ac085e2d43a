package sync

import (
	"context"
	"database/sql"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/cloud"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/database"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Pull fetches the remote snapshot for the signed-in account and reconciles
// it into local state. Remote-only records are adopted, conflicts go through
// the per-entity policies, local winners and local-only records are pushed
// back so the remote converges. Any error aborts the remaining steps and
// schedules a backoff retry on the pull's own counter; a successful cycle
// resets that counter, clears the last error, and stamps lastSyncedAt.
func (e *Engine) Pull(ctx context.Context) error {
	identity := e.identity(ctx)
	if identity == nil {
		return nil
	}

	e.beginCycle()
	defer e.endCycle(ctx)

	err := e.pull(ctx, identity)
	if err != nil {
		e.mu.Lock()
		e.pullRetries++
		e.lastError = err.Error()
		retries := e.pullRetries
		e.mu.Unlock()
		e.log.Err(err).Warn("pull cycle failed", logger.Data{"retries": retries})
		e.schedulePullRetry()
		return err
	}

	now := e.now().UnixMilli()
	e.mu.Lock()
	e.pullRetries = 0
	e.lastError = ""
	e.lastSyncedAt = &now
	e.mu.Unlock()

	return nil
}

func (e *Engine) pull(ctx context.Context, identity *cloud.Identity) error {
	firstRun, err := e.isFirstRun(ctx)
	if err != nil {
		return err
	}
	if firstRun {
		e.log.Info("empty library, adopting remote state", logger.Data{"owner_id": identity.OwnerID})
	}

	if err := e.pullBooks(ctx, identity); err != nil {
		return err
	}
	if err := e.pullSessions(ctx, identity); err != nil {
		return err
	}
	return e.pullProgress(ctx, identity)
}

// isFirstRun detects an empty local database so the first signed-in pull can
// be logged as a plain adoption rather than a reconciliation.
func (e *Engine) isFirstRun(ctx context.Context) (bool, error) {
	count, err := e.db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return count == 0, nil
}

func (e *Engine) pullBooks(ctx context.Context, identity *cloud.Identity) error {
	remoteBooks, err := e.client.FetchBooks(ctx, identity.OwnerID)
	if err != nil {
		return errors.Wrap(err, "failed to fetch remote books")
	}

	localBooks := []*models.Book{}
	err = e.db.NewSelect().Model(&localBooks).Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	localByID := map[string]*models.Book{}
	for _, b := range localBooks {
		localByID[b.ID] = b
	}

	remoteIDs := map[string]bool{}
	for _, remote := range remoteBooks {
		models.SanitizeBook(remote)
		remoteIDs[remote.ID] = true

		local, exists := localByID[remote.ID]
		if !exists {
			if err := e.writeBookLocally(ctx, remote); err != nil {
				return err
			}
			e.dropQueued(ctx, BookPayload(remote))
			continue
		}

		winner := ResolveBook(local, remote)
		if winner == remote {
			if err := e.writeBookLocally(ctx, remote); err != nil {
				return err
			}
			e.dropQueued(ctx, BookPayload(remote))
			continue
		}

		// The local copy is newer; converge the remote toward it. Failures
		// here are fire-and-forget: the next cycle picks them up.
		e.hydrateCover(ctx, local)
		if e.pushBook(ctx, local, false) {
			e.dropQueued(ctx, BookPayload(local))
		}
	}

	// Local-only books exist nowhere remotely, so push them unconditionally.
	for _, local := range localBooks {
		if remoteIDs[local.ID] {
			continue
		}
		e.hydrateCover(ctx, local)
		if e.pushBook(ctx, local, false) {
			e.dropQueued(ctx, BookPayload(local))
		}
	}

	return nil
}

func (e *Engine) pullSessions(ctx context.Context, identity *cloud.Identity) error {
	remoteSessions, err := e.client.FetchSessions(ctx, identity.OwnerID)
	if err != nil {
		return errors.Wrap(err, "failed to fetch remote sessions")
	}

	localSessions := []*models.Session{}
	err = e.db.NewSelect().Model(&localSessions).Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	localByID := map[string]*models.Session{}
	for _, s := range localSessions {
		localByID[s.ID] = s
	}

	remoteIDs := map[string]bool{}
	for _, remote := range remoteSessions {
		models.SanitizeSession(remote)
		remoteIDs[remote.ID] = true

		local, exists := localByID[remote.ID]
		if !exists {
			if err := e.writeSessionLocally(ctx, remote); err != nil {
				return err
			}
			continue
		}

		if ResolveSession(local, remote) == remote {
			if err := e.writeSessionLocally(ctx, remote); err != nil {
				return err
			}
			e.dropQueued(ctx, SessionPayload(remote))
		} else if e.pushSession(ctx, local, false) {
			e.dropQueued(ctx, SessionPayload(local))
		}
	}

	for _, local := range localSessions {
		if remoteIDs[local.ID] {
			continue
		}
		if e.pushSession(ctx, local, false) {
			e.dropQueued(ctx, SessionPayload(local))
		}
	}

	return nil
}

func (e *Engine) pullProgress(ctx context.Context, identity *cloud.Identity) error {
	remote, err := e.client.FetchProgress(ctx, identity.OwnerID)
	if err != nil {
		return errors.Wrap(err, "failed to fetch remote progress")
	}

	local := models.DefaultUserProgress()
	err = e.db.NewSelect().Model(local).WherePK().Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errors.WithStack(err)
	}

	merged := local
	if remote != nil {
		merged = MergeProgress(local, models.SanitizeProgress(remote))
	}
	merged.UpdatedAt = e.now()

	err = database.RunInTx(ctx, e.db, func(ctx context.Context, tx bun.Tx) error {
		return upsertProgressTx(ctx, tx, merged)
	})
	if err != nil {
		return err
	}

	// Converge the remote onto the merged record.
	if e.pushProgress(ctx, merged, false) {
		e.dropQueued(ctx, ProgressPayload(merged))
	}

	return nil
}

// dropQueued removes the queue entry for an entity the pull cycle just
// settled. Without this, a parked row (attempts exhausted) would pin the
// status at failed forever and a later flush would replay its stale payload
// over the freshly merged record.
func (e *Engine) dropQueued(ctx context.Context, payload Payload) {
	if err := e.queue.DeleteByEntityKey(ctx, payload.EntityKey()); err != nil {
		e.log.Err(err).Error("queue cleanup error")
	}
}

// writeBookLocally adopts a (sanitized) remote book: the full record, its
// library index twin, and its cover blob are written in one transaction.
func (e *Engine) writeBookLocally(ctx context.Context, book *models.Book) error {
	now := e.now()
	book.UpdatedAt = now
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}

	return database.RunInTx(ctx, e.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(book).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("content = EXCLUDED.content").
			Set("progress = EXCLUDED.progress").
			Set("total_words = EXCLUDED.total_words").
			Set("current_index = EXCLUDED.current_index").
			Set("last_read = EXCLUDED.last_read").
			Set("wpm = EXCLUDED.wpm").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		index := book.IndexRecord()
		_, err = tx.NewInsert().
			Model(index).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("progress = EXCLUDED.progress").
			Set("total_words = EXCLUDED.total_words").
			Set("current_index = EXCLUDED.current_index").
			Set("last_read = EXCLUDED.last_read").
			Set("wpm = EXCLUDED.wpm").
			Set("has_cover = EXCLUDED.has_cover").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if book.Cover == "" {
			return nil
		}
		cover := models.NewBookCover(book.ID, book.Cover)
		_, err = tx.NewInsert().
			Model(cover).
			On("CONFLICT (book_id) DO UPDATE").
			Set("data = EXCLUDED.data").
			Set("mime_type = EXCLUDED.mime_type").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (e *Engine) writeSessionLocally(ctx context.Context, session *models.Session) error {
	session.CreatedAt = e.now()
	_, err := e.db.NewInsert().
		Model(session).
		On("CONFLICT (id) DO UPDATE").
		Set("timestamp = EXCLUDED.timestamp").
		Set("duration_seconds = EXCLUDED.duration_seconds").
		Set("words_read = EXCLUDED.words_read").
		Set("average_wpm = EXCLUDED.average_wpm").
		Exec(ctx)
	return errors.WithStack(err)
}

// hydrateBook refills the fields a column-scoped read or update left blank,
// so a whole-record upsert never wipes the book's text or cover remotely.
func (e *Engine) hydrateBook(ctx context.Context, book *models.Book) {
	if book.Content == "" {
		stored := &models.Book{ID: book.ID}
		err := e.db.NewSelect().Model(stored).Column("content").WherePK().Scan(ctx)
		if err == nil {
			book.Content = stored.Content
		}
	}
	if book.Cover == "" {
		e.hydrateCover(ctx, book)
	}
}

// hydrateCover loads the lazily stored cover blob into the transient field
// before a book is pushed, so the remote record stays complete.
func (e *Engine) hydrateCover(ctx context.Context, book *models.Book) {
	cover := &models.BookCover{BookID: book.ID}
	err := e.db.NewSelect().Model(cover).WherePK().Scan(ctx)
	if err == nil {
		book.Cover = cover.Data
	}
}

// upsertProgressTx writes the singleton progress row inside an existing
// transaction.
func upsertProgressTx(ctx context.Context, tx bun.Tx, progress *models.UserProgress) error {
	progress.ID = models.UserProgressID
	if progress.UpdatedAt.IsZero() {
		progress.UpdatedAt = time.Now()
	}
	_, err := tx.NewInsert().
		Model(progress).
		On("CONFLICT (id) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Set("current_streak = EXCLUDED.current_streak").
		Set("longest_streak = EXCLUDED.longest_streak").
		Set("total_words_read = EXCLUDED.total_words_read").
		Set("peak_wpm = EXCLUDED.peak_wpm").
		Set("daily_goal_met_count = EXCLUDED.daily_goal_met_count").
		Set("unlocked_achievements = EXCLUDED.unlocked_achievements").
		Set("last_read_date = EXCLUDED.last_read_date").
		Set("default_wpm = EXCLUDED.default_wpm").
		Set("chunk_size = EXCLUDED.chunk_size").
		Set("font_size = EXCLUDED.font_size").
		Set("theme = EXCLUDED.theme").
		Set("daily_goal_words = EXCLUDED.daily_goal_words").
		Set("show_progress_bar = EXCLUDED.show_progress_bar").
		Set("pause_on_punctuation = EXCLUDED.pause_on_punctuation").
		Exec(ctx)
	return errors.WithStack(err)
}
