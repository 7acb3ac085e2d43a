package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/config"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/robinjoseph08/golib/logger"
)

// Worker drives the sync engine in the background: a fixed-interval pull loop
// while signed in, plus a queue sweep that replays due retry items. Both
// loops are independent of each other and of foreground user actions.
type Worker struct {
	config *config.Config
	log    logger.Logger
	engine *sync.Engine

	shutdown     chan struct{}
	donePulling  chan struct{}
	doneSweeping chan struct{}
}

func New(cfg *config.Config, engine *sync.Engine) *Worker {
	return &Worker{
		config: cfg,
		log:    logger.New(),
		engine: engine,

		shutdown:     make(chan struct{}),
		donePulling:  make(chan struct{}),
		doneSweeping: make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go w.pullLoop()
	go w.sweepLoop()
}

// pullLoop reconciles against the remote on a fixed interval. The first pull
// runs immediately so a fresh sign-in (or empty database) converges without
// waiting a full period.
func (w *Worker) pullLoop() {
	timer := time.NewTimer(0)

	for {
		select {
		case <-w.shutdown:
			timer.Stop()
			w.donePulling <- struct{}{}
			return
		case <-timer.C:
			ctx, log := w.taskContext("pull")
			if err := w.engine.Pull(ctx); err != nil {
				// Pull already recorded the failure and armed its own retry.
				log.Err(err).Warn("pull error")
			}
			timer.Reset(w.config.PullInterval)
		}
	}
}

// sweepLoop replays queue items that have come due. Most retries fire from
// the engine's own timer; the sweep is a safety net for timers lost to a
// restart, since the queue is durable but timers are not.
func (w *Worker) sweepLoop() {
	timer := time.NewTimer(w.config.QueueSweepInterval)

	for {
		select {
		case <-w.shutdown:
			timer.Stop()
			w.doneSweeping <- struct{}{}
			return
		case <-timer.C:
			ctx, log := w.taskContext("sweep")
			if err := w.engine.ProcessQueue(ctx); err != nil {
				log.Err(err).Error("queue sweep error")
			}
			timer.Reset(w.config.QueueSweepInterval)
		}
	}
}

func (w *Worker) taskContext(task string) (context.Context, logger.Logger) {
	log := w.log.ID(uuid.New().String()).Root(logger.Data{"task": task})
	return log.WithContext(context.Background()), log
}

func (w *Worker) Shutdown() {
	close(w.shutdown)

	<-w.donePulling
	<-w.doneSweeping
}
