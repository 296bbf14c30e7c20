package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner drives periodic sweeps plus on-demand triggers, off every request
// path.
type Runner struct {
	sweeper  Sweeper
	interval time.Duration
	trigger  chan struct{}
	log      *zap.Logger
}

// NewRunner creates a runner sweeping every interval.
func NewRunner(sweeper Sweeper, interval time.Duration, log *zap.Logger) *Runner {
	return &Runner{
		sweeper:  sweeper,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		log:      log,
	}
}

// Trigger requests an immediate sweep. Non-blocking; a pending trigger
// coalesces with this one.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Start runs sweeps until ctx is cancelled. One sweep runs immediately on
// startup to shorten the window after a crash.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Reconciler runner shutting down")
			return
		case <-ticker.C:
			r.sweep(ctx)
		case <-r.trigger:
			r.log.Info("On-demand reconciliation triggered")
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	if _, err := r.sweeper.Sweep(ctx); err != nil {
		r.log.Error("Reconciliation sweep failed", zap.Error(err))
	}
}
