package sync

import (
	"context"
	"sync"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/cloud"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/config"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Engine owns the retry queue, the push adapters, the pull/merge cycle, and
// the projected status. It is created once at startup and shared by the
// feature services and the background worker.
type Engine struct {
	db           *bun.DB
	client       cloud.Client
	resolver     cloud.Resolver
	connectivity cloud.Connectivity
	enabled      bool
	log          logger.Logger
	queue        *Queue
	now          func() time.Time

	mu               sync.Mutex
	status           Status
	subscribers      map[int]func(Status)
	nextSubscriberID int
	inFlight         int
	pullRetries      int
	lastSyncedAt     *int64
	lastError        string
	retryTimer       *time.Timer
	pullRetryTimer   *time.Timer
}

func NewEngine(cfg *config.Config, db *bun.DB, client cloud.Client, resolver cloud.Resolver, connectivity cloud.Connectivity) *Engine {
	return &Engine{
		db:           db,
		client:       client,
		resolver:     resolver,
		connectivity: connectivity,
		enabled:      cfg.CloudSyncEnabled,
		log:          logger.New(),
		queue:        NewQueue(db),
		now:          time.Now,
		status:       Status{Phase: PhaseIdle},
		subscribers:  map[int]func(Status){},
	}
}

// Queue exposes the durable queue for services that need direct access (e.g.
// the status handler reporting raw items in debug builds).
func (e *Engine) Queue() *Queue {
	return e.queue
}

// Enabled reports whether cloud sync is configured on.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Close disarms any pending timers. The queue itself is durable, so nothing
// else needs teardown.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	if e.pullRetryTimer != nil {
		e.pullRetryTimer.Stop()
		e.pullRetryTimer = nil
	}
}

// identity resolves the signed-in account, or nil when sync can't run.
func (e *Engine) identity(ctx context.Context) *cloud.Identity {
	if !e.enabled {
		return nil
	}
	identity, err := e.resolver.Resolve(ctx)
	if err != nil {
		e.log.Err(err).Warn("identity resolution failed")
		return nil
	}
	return identity
}

func (e *Engine) beginCycle() {
	e.mu.Lock()
	e.inFlight++
	e.mu.Unlock()
	e.refreshStatus(context.Background())
}

func (e *Engine) endCycle(ctx context.Context) {
	e.mu.Lock()
	e.inFlight--
	e.mu.Unlock()
	e.refreshStatus(ctx)
}

// refreshStatus recomputes the projection from the queue and engine state,
// publishes it, and re-arms the retry timer at the new global minimum.
func (e *Engine) refreshStatus(ctx context.Context) {
	items, err := e.queue.Items(ctx)
	if err != nil {
		e.log.Err(err).Error("queue read error")
		return
	}

	maxAttempts := 0
	var nextRetryAt *int64
	queueError := ""
	for _, item := range items {
		if item.RetryAttempts > maxAttempts {
			maxAttempts = item.RetryAttempts
		}
		if item.NextRetryAt != nil && (nextRetryAt == nil || *item.NextRetryAt < *nextRetryAt) {
			nextRetryAt = item.NextRetryAt
		}
		if item.LastError != "" {
			queueError = item.LastError
		}
	}

	e.mu.Lock()
	pullRetries := e.pullRetries
	inFlight := e.inFlight
	lastSyncedAt := e.lastSyncedAt
	lastError := e.lastError
	e.mu.Unlock()

	if pullRetries > maxAttempts {
		maxAttempts = pullRetries
	}
	if queueError != "" {
		lastError = queueError
	}

	phase := PhaseIdle
	switch {
	case inFlight > 0:
		phase = PhaseSyncing
	case maxAttempts > 0:
		phase = PhaseFailed
	}

	e.publish(Status{
		Phase:         phase,
		QueueSize:     len(items),
		RetryAttempts: maxAttempts,
		NextRetryAt:   nextRetryAt,
		LastSyncedAt:  lastSyncedAt,
		LastError:     lastError,
	})

	e.armRetryTimer(nextRetryAt)
}

// armRetryTimer keeps exactly one timer live for the earliest pending retry.
// A nil target disarms it; a target in the past fires almost immediately
// instead of being armed in the past.
func (e *Engine) armRetryTimer(nextRetryAt *int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	if nextRetryAt == nil {
		return
	}

	delay := time.Until(time.UnixMilli(*nextRetryAt))
	if delay < 50*time.Millisecond {
		delay = 50 * time.Millisecond
	}

	e.retryTimer = time.AfterFunc(delay, func() {
		e.mu.Lock()
		e.retryTimer = nil
		e.mu.Unlock()
		if err := e.ProcessQueue(context.Background()); err != nil {
			e.log.Err(err).Error("scheduled queue processing error")
		}
	})
}

// schedulePullRetry arms a one-shot retry for a failed pull cycle using the
// same backoff curve as the queue but a dedicated counter.
func (e *Engine) schedulePullRetry() {
	e.mu.Lock()
	attempt := e.pullRetries
	if e.pullRetryTimer != nil {
		e.pullRetryTimer.Stop()
	}
	e.pullRetryTimer = time.AfterFunc(Backoff(attempt), func() {
		e.mu.Lock()
		e.pullRetryTimer = nil
		e.mu.Unlock()
		if err := e.Pull(context.Background()); err != nil {
			e.log.Err(err).Warn("pull retry failed")
		}
	})
	e.mu.Unlock()
}
