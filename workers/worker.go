// Package workers runs the background loops of the booking core: hold
// expiration, no-show cleanup and visit reminders. All three share one loop
// handle with bounded stop semantics.
package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salonbook/config"
	"salonbook/utils"
)

// Worker is a restartless background loop. Its cadence is re-evaluated every
// iteration so settings changes take effect without a restart.
type Worker struct {
	name     string
	interval func(ctx context.Context) time.Duration
	iterate  func(ctx context.Context)

	cancel   context.CancelFunc
	stopChan chan struct{}
	done     chan struct{}
}

// NewWorker builds a loop handle. interval is consulted before each sleep;
// iterate runs one idempotent pass.
func NewWorker(name string, interval func(ctx context.Context) time.Duration, iterate func(ctx context.Context)) *Worker {
	return &Worker{
		name:     name,
		interval: interval,
		iterate:  iterate,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop after a short initial delay.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	logger := utils.GetLogger()
	logger.Info("worker starting", zap.String("worker", w.name))

	go func() {
		defer close(w.done)

		select {
		case <-time.After(config.WorkerInitialDelaySeconds * time.Second):
		case <-w.stopChan:
			return
		}

		for {
			w.iterate(ctx)

			wait := w.interval(ctx)
			if wait < time.Second {
				wait = time.Second
			}
			select {
			case <-time.After(wait):
			case <-w.stopChan:
				return
			}
		}
	}()
}

// Stop signals the loop and joins with a bounded timeout. An iteration still
// in flight after the timeout is hard-cancelled through its context.
func (w *Worker) Stop() {
	logger := utils.GetLogger()
	close(w.stopChan)

	select {
	case <-w.done:
	case <-time.After(config.WorkerStopTimeoutSeconds * time.Second):
		logger.Warn("worker stop timed out, cancelling", zap.String("worker", w.name))
		if w.cancel != nil {
			w.cancel()
		}
		<-w.done
	}
	if w.cancel != nil {
		w.cancel()
	}
	logger.Info("worker stopped", zap.String("worker", w.name))
}

// Settings is the runtime-mutable knob surface consulted per tick.
type Settings interface {
	GetInt(ctx context.Context, key string, def int) int
}

func secondsInterval(settings Settings, key string, def int) func(ctx context.Context) time.Duration {
	return func(ctx context.Context) time.Duration {
		s := settings.GetInt(ctx, key, def)
		if s < 1 {
			s = 1
		}
		return time.Duration(s) * time.Second
	}
}
