package sync

import (
	"context"
	"testing"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeFiresImmediately(t *testing.T) {
	t.Parallel()
	engine, _, _ := newTestEngine(t)

	received := []Status{}
	unsubscribe := engine.Subscribe(func(s Status) {
		received = append(received, s)
	})
	defer unsubscribe()

	require.Len(t, received, 1)
	assert.Equal(t, PhaseIdle, received[0].Phase)
	assert.Zero(t, received[0].QueueSize)
}

func TestSubscribersSeeQueueChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, monitor := newTestEngine(t)

	received := []Status{}
	unsubscribe := engine.Subscribe(func(s Status) {
		received = append(received, s)
	})
	defer unsubscribe()

	monitor.Set(false)
	engine.SyncBook(ctx, &models.Book{ID: "b1"})

	last := received[len(received)-1]
	assert.Equal(t, 1, last.QueueSize)

	monitor.Set(true)
	require.NoError(t, engine.ProcessQueue(ctx))

	last = received[len(received)-1]
	assert.Equal(t, PhaseIdle, last.Phase)
	assert.Zero(t, last.QueueSize)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, monitor := newTestEngine(t)

	calls := 0
	unsubscribe := engine.Subscribe(func(Status) {
		calls++
	})
	require.Equal(t, 1, calls)

	unsubscribe()

	monitor.Set(false)
	engine.SyncBook(ctx, &models.Book{ID: "b1"})
	assert.Equal(t, 1, calls)
}

func TestDuplicateStatusIsNotRepublished(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	calls := 0
	unsubscribe := engine.Subscribe(func(Status) {
		calls++
	})
	defer unsubscribe()

	// Each pass flaps idle -> syncing -> idle. The intermediate projections
	// inside a pass are identical, so only the phase transitions are
	// delivered: the initial fire plus two per pass.
	require.NoError(t, engine.ProcessQueue(ctx))
	require.NoError(t, engine.ProcessQueue(ctx))

	assert.Equal(t, PhaseIdle, engine.Status().Phase)
	assert.Equal(t, 5, calls)
}
