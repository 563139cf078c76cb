package launch

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"focuswatch/entity"
	"focuswatch/sampler"
	"focuswatch/tracker"
)

// Runner is the polling loop feeding a tracker. Each tick samples once and
// hands the result to the tracker before the next tick can start; a tick that
// overruns the interval delays the next one instead of overlapping it.
type Runner struct {
	tracker  *tracker.Tracker
	sampler  sampler.Sampler
	interval time.Duration
	log      hclog.Logger
}

func NewRunner(t *tracker.Tracker, s sampler.Sampler, interval time.Duration, logger hclog.Logger) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{tracker: t, sampler: s, interval: interval, log: logger.Named("runner")}
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.log.Debug("poll loop started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Tick(ctx)
		select {
		case <-ctx.Done():
			r.log.Debug("poll loop stopped")
			return
		case <-ticker.C:
		}
	}
}

// Tick performs one sample and delivers it. No timeout is applied to the
// sampler beyond ctx.
func (r *Runner) Tick(ctx context.Context) {
	identity, ok, err := r.sampler.Sample(ctx)
	if ctx.Err() != nil {
		// cancelled mid-sample: nothing was learned this tick
		return
	}
	if err != nil {
		r.tracker.OnSampleFailure(err)
		return
	}
	if !ok {
		identity = entity.IdleIdentity
	}
	if err := r.tracker.OnSample(ctx, identity); err != nil && !errors.Is(err, tracker.ErrNotRunning) {
		r.log.Warn("sample rejected", "error", err)
	}
}
