package sync

import (
	"context"
	"testing"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLocalBook(t *testing.T, e *Engine, book *models.Book) {
	t.Helper()
	ctx := context.Background()

	err := e.writeBookLocally(ctx, book)
	require.NoError(t, err)
}

func TestPullAdoptsRemoteOnlyRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	fake.Books["b1"] = &models.Book{ID: "b1", Title: "Solaris", Content: "text", TotalWords: 2, Cover: "PNGDATA", LastRead: 500}
	fake.Sessions["s1"] = &models.Session{ID: "s1", BookID: "b1", Timestamp: 400, WordsRead: 120}
	fake.Progress = &models.UserProgress{TotalWordsRead: 999, UnlockedAchievements: []string{"first-book"}}

	require.NoError(t, engine.Pull(ctx))

	// The book arrives with both of its twins.
	book := &models.Book{ID: "b1"}
	require.NoError(t, engine.db.NewSelect().Model(book).WherePK().Scan(ctx))
	assert.Equal(t, "Solaris", book.Title)

	index := &models.LibraryBook{ID: "b1"}
	require.NoError(t, engine.db.NewSelect().Model(index).WherePK().Scan(ctx))
	assert.True(t, index.HasCover)

	cover := &models.BookCover{BookID: "b1"}
	require.NoError(t, engine.db.NewSelect().Model(cover).WherePK().Scan(ctx))
	assert.Equal(t, "PNGDATA", cover.Data)

	session := &models.Session{ID: "s1"}
	require.NoError(t, engine.db.NewSelect().Model(session).WherePK().Scan(ctx))
	assert.Equal(t, 120, session.WordsRead)

	progress := &models.UserProgress{ID: models.UserProgressID}
	require.NoError(t, engine.db.NewSelect().Model(progress).WherePK().Scan(ctx))
	assert.Equal(t, int64(999), progress.TotalWordsRead)
	assert.Contains(t, progress.UnlockedAchievements, "first-book")

	status := engine.Status()
	assert.Equal(t, PhaseIdle, status.Phase)
	require.NotNil(t, status.LastSyncedAt)
}

func TestPullResolvesBookConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	// Local copy was read more recently; it must win and converge the remote.
	seedLocalBook(t, engine, &models.Book{ID: "b1", Title: "Local Wins", LastRead: 900, Progress: 0.2})
	fake.Books["b1"] = &models.Book{ID: "b1", Title: "Remote Stale", LastRead: 100, Progress: 0.9}

	// Remote copy was read more recently; it must be adopted locally.
	seedLocalBook(t, engine, &models.Book{ID: "b2", Title: "Local Stale", LastRead: 100, Progress: 0.9})
	fake.Books["b2"] = &models.Book{ID: "b2", Title: "Remote Wins", LastRead: 900, Progress: 0.2}

	require.NoError(t, engine.Pull(ctx))

	b1 := &models.Book{ID: "b1"}
	require.NoError(t, engine.db.NewSelect().Model(b1).WherePK().Scan(ctx))
	assert.Equal(t, "Local Wins", b1.Title)
	assert.Equal(t, "Local Wins", fake.Books["b1"].Title)

	b2 := &models.Book{ID: "b2"}
	require.NoError(t, engine.db.NewSelect().Model(b2).WherePK().Scan(ctx))
	assert.Equal(t, "Remote Wins", b2.Title)
}

func TestPullPushesLocalOnlyRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	seedLocalBook(t, engine, &models.Book{ID: "b1", Title: "Only Here", LastRead: 100})

	session := &models.Session{ID: "s1", BookID: "b1", Timestamp: 50}
	_, err := engine.db.NewInsert().Model(session).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, engine.Pull(ctx))

	require.Contains(t, fake.Books, "b1")
	assert.Equal(t, "Only Here", fake.Books["b1"].Title)
	require.Contains(t, fake.Sessions, "s1")
}

func TestPullMergesProgressBothWays(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	local := models.DefaultUserProgress()
	local.CurrentStreak = 5
	local.TotalWordsRead = 1000
	local.Theme = "dark"
	_, err := engine.db.NewInsert().Model(local).Exec(ctx)
	require.NoError(t, err)

	fake.Progress = &models.UserProgress{
		CurrentStreak:        2,
		TotalWordsRead:       3000,
		UnlockedAchievements: []string{"night-owl"},
		Theme:                "light",
	}

	require.NoError(t, engine.Pull(ctx))

	merged := &models.UserProgress{ID: models.UserProgressID}
	require.NoError(t, engine.db.NewSelect().Model(merged).WherePK().Scan(ctx))
	assert.Equal(t, 5, merged.CurrentStreak)
	assert.Equal(t, int64(3000), merged.TotalWordsRead)
	assert.Equal(t, "dark", merged.Theme)
	assert.Contains(t, merged.UnlockedAchievements, "night-owl")

	// The merged record also converged the remote.
	require.NotNil(t, fake.Progress)
	assert.Equal(t, int64(3000), fake.Progress.TotalWordsRead)
	assert.Equal(t, "dark", fake.Progress.Theme)
}

func TestPullFailureSchedulesDedicatedRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	fake.FailReads = true

	err := engine.Pull(ctx)
	require.Error(t, err)

	status := engine.Status()
	assert.Equal(t, PhaseFailed, status.Phase)
	assert.Equal(t, 1, status.RetryAttempts)
	assert.NotEmpty(t, status.LastError)
	assert.Nil(t, status.LastSyncedAt)

	// A successful cycle resets the pull retry counter and clears the error.
	fake.FailReads = false
	require.NoError(t, engine.Pull(ctx))

	status = engine.Status()
	assert.Equal(t, PhaseIdle, status.Phase)
	assert.Zero(t, status.RetryAttempts)
	assert.Empty(t, status.LastError)
	require.NotNil(t, status.LastSyncedAt)
}

func TestPullIsNoopWhenSignedOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	engine.resolver = nil // not consulted when sync is disabled
	engine.enabled = false
	fake.Books["b1"] = &models.Book{ID: "b1"}

	require.NoError(t, engine.Pull(ctx))

	count, err := engine.db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPullClearsParkedQueueRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	seedLocalBook(t, engine, &models.Book{ID: "b1", Title: "Dune", Content: "words", LastRead: 900})

	// Exhaust the item's retry budget against a broken remote.
	fake.FailWrites = true
	require.NoError(t, engine.Queue().Enqueue(ctx, BookPayload(&models.Book{ID: "b1", Title: "Dune", LastRead: 900})))
	for i := 0; i < MaxAttempts; i++ {
		require.NoError(t, engine.Flush(ctx))
	}

	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Nil(t, items[0].NextRetryAt)
	require.Equal(t, PhaseFailed, engine.Status().Phase)

	// A healthy pull pushes the same record itself; the parked row must not
	// outlive the cycle, or the status stays failed and a later flush would
	// replay the stale payload.
	fake.FailWrites = false
	require.NoError(t, engine.Pull(ctx))

	items, err = engine.Queue().Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	status := engine.Status()
	assert.Equal(t, PhaseIdle, status.Phase)
	assert.Zero(t, status.RetryAttempts)
	assert.Equal(t, "Dune", fake.Books["b1"].Title)
}

func TestPullRepushesSessionOnTimestampTie(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	require.NoError(t, engine.writeSessionLocally(ctx, &models.Session{ID: "s1", BookID: "b1", Timestamp: 700, WordsRead: 150}))
	fake.Sessions["s1"] = &models.Session{ID: "s1", BookID: "b1", Timestamp: 700, WordsRead: 90}

	require.NoError(t, engine.Pull(ctx))

	// Ties go to the local record, and every local winner converges the
	// remote.
	assert.Equal(t, 150, fake.Sessions["s1"].WordsRead)

	stored := &models.Session{ID: "s1"}
	require.NoError(t, engine.db.NewSelect().Model(stored).WherePK().Scan(ctx))
	assert.Equal(t, 150, stored.WordsRead)
}
