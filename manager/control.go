package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"focuswatch/launch"
	"focuswatch/query"
	"focuswatch/sampler"
	"focuswatch/tracker"
)

// Store is what the controller needs from the activity store.
type Store interface {
	tracker.Sink
	Init(ctx context.Context) error
	Ready(ctx context.Context) error
	Recent(ctx context.Context, limit int) (query.Result, error)
	History(ctx context.Context, r query.TimeRange) (query.Result, error)
	SummaryByApplication(ctx context.Context, r query.TimeRange) (query.Summary, error)
}

type Options struct {
	Interval                time.Duration
	Clock                   tracker.Clock
	Logger                  hclog.Logger
	SamplerFailureThreshold int
	StoreFailureThreshold   int
}

// Controller owns one tracker and its polling loop and exposes the
// start/stop/status and query operations used by the CLI, the web API and
// the tray.
type Controller struct {
	store   Store
	tracker *tracker.Tracker
	runner  *launch.Runner
	log     hclog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewController(store Store, smp sampler.Sampler, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	tr := tracker.New(store, tracker.Options{
		Clock:                   opts.Clock,
		Logger:                  opts.Logger,
		SamplerFailureThreshold: opts.SamplerFailureThreshold,
		StoreFailureThreshold:   opts.StoreFailureThreshold,
	})
	return &Controller{
		store:   store,
		tracker: tr,
		runner:  launch.NewRunner(tr, smp, opts.Interval, opts.Logger),
		log:     opts.Logger.Named("control"),
	}
}

// Start begins tracking. It fails when the store is not initialized, and is
// a no-op when tracking is already running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.log.Debug("start ignored, already running")
		return nil
	}
	if err := c.store.Ready(ctx); err != nil {
		return err
	}
	if err := c.tracker.Start(); err != nil && !errors.Is(err, tracker.ErrAlreadyRunning) {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.runner.Run(loopCtx)
	}()
	c.cancel = cancel
	c.done = done
	return nil
}

// Stop ends the polling loop, waits for an in-flight tick to finish and then
// flushes the open session. Stopping twice is a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
		c.done = nil
	}
	return c.tracker.Stop(ctx)
}

func (c *Controller) Status() tracker.Status {
	return c.tracker.Status()
}

// Ready reports whether the store can be used.
func (c *Controller) Ready(ctx context.Context) error {
	return c.store.Ready(ctx)
}

func (c *Controller) InitStorage(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Controller) Recent(ctx context.Context, limit int) (query.Result, error) {
	return c.store.Recent(ctx, limit)
}

func (c *Controller) Summary(ctx context.Context, r query.TimeRange) (query.Summary, error) {
	return c.store.SummaryByApplication(ctx, r)
}

func (c *Controller) History(ctx context.Context, r query.TimeRange) (query.Result, error) {
	res, err := c.store.History(ctx, r)
	if err != nil {
		return res, fmt.Errorf("history: %w", err)
	}
	return res, nil
}
