package sync

import (
	"context"
	"testing"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/cloud"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/config"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *cloud.Fake, *cloud.Monitor) {
	t.Helper()

	cfg := &config.Config{CloudSyncEnabled: true}
	fake := cloud.NewFake()
	monitor := cloud.NewMonitor()
	resolver := &cloud.StaticResolver{Identity: &cloud.Identity{OwnerID: "owner-1"}}

	engine := NewEngine(cfg, testutils.NewDB(t), fake, resolver, monitor)
	t.Cleanup(engine.Close)

	return engine, fake, monitor
}

func TestSyncBookQueuesWhileOffline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, monitor := newTestEngine(t)

	monitor.Set(false)

	book := &models.Book{ID: "b1", Title: "Dune", LastRead: 100}
	sent := engine.SyncBook(ctx, book)
	assert.False(t, sent)
	assert.Empty(t, fake.Books)

	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SYNC_BOOK:b1", items[0].EntityKey)

	// Back online, the queued item replays and the queue drains.
	monitor.Set(true)
	require.NoError(t, engine.ProcessQueue(ctx))

	items, err = engine.Queue().Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	require.Contains(t, fake.Books, "b1")
	assert.Equal(t, "Dune", fake.Books["b1"].Title)
}

func TestSyncBookDirectSuccessClearsQueuedEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, monitor := newTestEngine(t)

	monitor.Set(false)
	book := &models.Book{ID: "b1", Title: "Draft"}
	engine.SyncBook(ctx, book)

	monitor.Set(true)
	book.Title = "Final"
	sent := engine.SyncBook(ctx, book)
	assert.True(t, sent)

	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, "Final", fake.Books["b1"].Title)
}

func TestProcessQueueSkipsItemsNotYetDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, monitor := newTestEngine(t)

	monitor.Set(false)
	engine.SyncBook(ctx, &models.Book{ID: "b1"})

	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, engine.Queue().RecordFailure(ctx, items[0], "device offline"))

	monitor.Set(true)
	require.NoError(t, engine.ProcessQueue(ctx))

	// The backoff hasn't elapsed, so nothing was attempted.
	assert.Empty(t, fake.Books)
	assert.Zero(t, fake.UpsertCalls)

	items, err = engine.Queue().Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].RetryAttempts)
}

func TestProcessQueueIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, monitor := newTestEngine(t)

	monitor.Set(false)
	engine.SyncBook(ctx, &models.Book{ID: "b1"})
	engine.SyncSession(ctx, &models.Session{ID: "s1", BookID: "b1"})
	monitor.Set(true)

	require.NoError(t, engine.ProcessQueue(ctx))
	callsAfterFirst := fake.UpsertCalls

	require.NoError(t, engine.ProcessQueue(ctx))
	assert.Equal(t, callsAfterFirst, fake.UpsertCalls)

	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTerminalFailureParksUntilFlush(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	fake.FailWrites = true
	engine.SyncBook(ctx, &models.Book{ID: "b1", Title: "Stuck"})

	// Flush ignores the backoff schedule, so each call burns one attempt.
	for i := 0; i < MaxAttempts; i++ {
		require.NoError(t, engine.Flush(ctx))
	}

	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, MaxAttempts, items[0].RetryAttempts)
	assert.Nil(t, items[0].NextRetryAt)

	status := engine.Status()
	assert.Equal(t, PhaseFailed, status.Phase)
	assert.Equal(t, MaxAttempts, status.RetryAttempts)
	assert.Nil(t, status.NextRetryAt)

	// A parked item is excluded from automatic processing.
	calls := fake.UpsertCalls
	require.NoError(t, engine.ProcessQueue(ctx))
	assert.Equal(t, calls, fake.UpsertCalls)

	// But a manual flush replays it, and once the remote accepts it the
	// queue drains and the failure clears.
	fake.FailWrites = false
	require.NoError(t, engine.Flush(ctx))

	items, err = engine.Queue().Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	require.Contains(t, fake.Books, "b1")

	status = engine.Status()
	assert.Equal(t, PhaseIdle, status.Phase)
	assert.Zero(t, status.RetryAttempts)
}

func TestCorruptPayloadCountsAsFailedAttempt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	row := &models.SyncItem{
		ID:        "corrupt-1",
		Type:      models.SyncItemSyncBook,
		EntityKey: "SYNC_BOOK:b1",
		Payload:   []byte("{not json"),
		Timestamp: time.Now().UnixMilli(),
	}
	_, err := engine.db.NewInsert().Model(row).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, engine.ProcessQueue(ctx))

	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].RetryAttempts)
	require.NotNil(t, items[0].NextRetryAt)
}

func TestSyncDisabledNeverTouchesRemote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := &config.Config{CloudSyncEnabled: false}
	fake := cloud.NewFake()
	engine := NewEngine(cfg, testutils.NewDB(t), fake, &cloud.StaticResolver{}, cloud.NewMonitor())
	t.Cleanup(engine.Close)

	sent := engine.SyncBook(ctx, &models.Book{ID: "b1"})
	assert.False(t, sent)
	assert.Zero(t, fake.UpsertCalls)

	// The mutation is still queued for when sync turns on.
	items, err := engine.Queue().Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSyncBookHydratesPartialRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, _ := newTestEngine(t)

	seedLocalBook(t, engine, &models.Book{ID: "b1", Title: "Dune", Content: "words of the book", Cover: "PNGDATA", TotalWords: 4, LastRead: 100})

	// A position update hands over a record without content or cover; the
	// record that reaches the remote must still be the whole book.
	partial := &models.Book{ID: "b1", Title: "Dune", Progress: 0.5, CurrentIndex: 2, LastRead: 200, WPM: 300}
	require.True(t, engine.SyncBook(ctx, partial))

	remote := fake.Books["b1"]
	require.NotNil(t, remote)
	assert.Equal(t, "words of the book", remote.Content)
	assert.Equal(t, "PNGDATA", remote.Cover)
	assert.Equal(t, 0.5, remote.Progress)
	assert.Equal(t, 2, remote.CurrentIndex)
}

func TestSyncBookQueuesHydratedRecordWhileOffline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, fake, monitor := newTestEngine(t)

	seedLocalBook(t, engine, &models.Book{ID: "b1", Title: "Dune", Content: "words of the book", Cover: "PNGDATA", TotalWords: 4, LastRead: 100})

	monitor.Set(false)
	partial := &models.Book{ID: "b1", Title: "Dune", Progress: 0.5, CurrentIndex: 2, LastRead: 200, WPM: 300}
	require.False(t, engine.SyncBook(ctx, partial))

	// The queued payload replays later, so it has to carry the full record
	// too.
	monitor.Set(true)
	require.NoError(t, engine.Flush(ctx))

	remote := fake.Books["b1"]
	require.NotNil(t, remote)
	assert.Equal(t, "words of the book", remote.Content)
	assert.Equal(t, "PNGDATA", remote.Cover)
}
