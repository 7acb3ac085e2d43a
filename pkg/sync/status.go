package sync

// Phase is the coarse sync state shown to the user.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseSyncing Phase = "syncing"
	PhaseFailed  Phase = "failed"
)

// Status is the derived projection over the queue and the engine's in-flight
// state. It is never stored; the engine recomputes it after every queue
// mutation and push/pull cycle.
type Status struct {
	Phase         Phase  `json:"phase"`
	QueueSize     int    `json:"queueSize"`
	RetryAttempts int    `json:"retryAttempts"`
	NextRetryAt   *int64 `json:"nextRetryAt"`
	LastSyncedAt  *int64 `json:"lastSyncedAt"`
	LastError     string `json:"lastError,omitempty"`
}

// Subscribe registers fn to receive the current status immediately and every
// change after that. The returned function unsubscribes.
func (e *Engine) Subscribe(fn func(Status)) func() {
	e.mu.Lock()
	id := e.nextSubscriberID
	e.nextSubscriberID++
	e.subscribers[id] = fn
	current := e.status
	e.mu.Unlock()

	fn(current)

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// Status returns the latest projected status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s Status) equal(other Status) bool {
	return s.Phase == other.Phase &&
		s.QueueSize == other.QueueSize &&
		s.RetryAttempts == other.RetryAttempts &&
		s.LastError == other.LastError &&
		int64PtrEqual(s.NextRetryAt, other.NextRetryAt) &&
		int64PtrEqual(s.LastSyncedAt, other.LastSyncedAt)
}

// publish stores the new status and notifies subscribers outside the lock.
func (e *Engine) publish(status Status) {
	e.mu.Lock()
	if status.equal(e.status) {
		e.mu.Unlock()
		return
	}
	e.status = status
	fns := make([]func(Status), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(status)
	}
}
