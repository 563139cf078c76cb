// Package tracker turns a stream of focus samples into closed activity records.
//
// A Tracker is either stopped or running. While running it holds at most one
// open session: the identity last observed and the instant it was first seen.
// A sample with a different identity closes the session at the sample's
// instant and opens the next one at that same instant, so consecutive records
// share their boundary and never overlap.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"focuswatch/entity"
)

var (
	// ErrAlreadyRunning is returned by Start on a running tracker. Callers may treat it as a no-op.
	ErrAlreadyRunning = errors.New("tracker already running")
	ErrNotRunning     = errors.New("tracker not running")
)

// Sink receives closed sessions. query.Database satisfies it.
type Sink interface {
	Append(ctx context.Context, record entity.ActivityRecord) (int64, error)
}

type Options struct {
	Clock  Clock
	Logger hclog.Logger
	// SamplerFailureThreshold is the number of consecutive failed samples
	// after which Status reports the sampler as degraded.
	SamplerFailureThreshold int
	// StoreFailureThreshold is the number of consecutive failed appends
	// after which Status reports the store as degraded.
	StoreFailureThreshold int
}

type session struct {
	identity  entity.Identity
	startedAt time.Time
}

type Tracker struct {
	mu    sync.Mutex
	sink  Sink
	clock Clock
	log   hclog.Logger

	samplerThreshold int
	storeThreshold   int

	running         bool
	current         *session
	pending         []entity.ActivityRecord
	samplerFailures int
	storeFailures   int
	lastSamplerErr  error
	lastStoreErr    error
	recorded        int
}

func New(sink Sink, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.SamplerFailureThreshold < 1 {
		opts.SamplerFailureThreshold = 30
	}
	if opts.StoreFailureThreshold < 1 {
		opts.StoreFailureThreshold = 3
	}
	return &Tracker{
		sink:             sink,
		clock:            opts.Clock,
		log:              opts.Logger.Named("tracker"),
		samplerThreshold: opts.SamplerFailureThreshold,
		storeThreshold:   opts.StoreFailureThreshold,
	}
}

// Start moves the tracker to running with no open session. Records left
// pending by an earlier failed flush are kept and retried on the next close.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrAlreadyRunning
	}
	t.running = true
	t.current = nil
	t.samplerFailures = 0
	t.lastSamplerErr = nil
	t.log.Info("tracking started")
	return nil
}

// Stop closes the open session at the current instant, flushes it together
// with anything still pending and moves the tracker to stopped. On a stopped
// tracker it only retries records left pending by an earlier failed Stop. A
// non-nil error means some records could not be stored; they stay pending.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasRunning := t.running
	if !wasRunning && len(t.pending) == 0 {
		return nil
	}
	if t.current != nil {
		t.closeSession(t.clock.Now())
	}
	t.running = false
	err := t.flush(ctx)
	if wasRunning {
		t.log.Info("tracking stopped", "recorded", t.recorded, "pending", len(t.pending))
	}
	if err != nil {
		return fmt.Errorf("flush %d pending records: %w", len(t.pending), err)
	}
	return nil
}

// OnSample feeds one successful observation. Identities compare on both the
// application name and the window title.
func (t *Tracker) OnSample(ctx context.Context, identity entity.Identity) error {
	if identity.ApplicationName == "" {
		identity.ApplicationName = entity.UnknownApplication
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return ErrNotRunning
	}
	if t.samplerFailures >= t.samplerThreshold {
		t.log.Info("sampler recovered", "failures", t.samplerFailures)
	}
	t.samplerFailures = 0
	t.lastSamplerErr = nil

	now := t.clock.Now()
	if t.current == nil {
		t.open(identity, now)
		return nil
	}
	if t.current.identity == identity {
		return nil
	}

	t.closeSession(now)
	t.open(identity, now)
	// Store failures are retained in pending and reported through Status.
	_ = t.flush(ctx)
	return nil
}

// OnSampleFailure records a tick that produced no information. The open
// session is left untouched, so its eventual duration covers the gap.
func (t *Tracker) OnSampleFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.samplerFailures++
	t.lastSamplerErr = err
	switch {
	case t.samplerFailures == t.samplerThreshold:
		t.log.Warn("sampler degraded", "consecutive_failures", t.samplerFailures, "error", err)
	case t.samplerFailures < t.samplerThreshold:
		t.log.Debug("sample failed", "error", err)
	}
}

func (t *Tracker) open(identity entity.Identity, now time.Time) {
	t.current = &session{identity: identity, startedAt: now}
	t.log.Debug("session opened", "application", identity.ApplicationName, "title", identity.WindowTitle)
}

// closeSession turns the open session into a pending record. Sessions of zero
// length are dropped; a clock stepping backwards yields zero, never negative.
func (t *Tracker) closeSession(now time.Time) {
	s := t.current
	t.current = nil

	d := now.Sub(s.startedAt)
	if d <= 0 {
		t.log.Debug("dropping empty session", "application", s.identity.ApplicationName)
		return
	}
	t.pending = append(t.pending, entity.ActivityRecord{
		ApplicationName: s.identity.ApplicationName,
		WindowTitle:     s.identity.WindowTitle,
		StartTime:       s.startedAt,
		Duration:        d,
		ActivityType:    entity.DefaultActivityType,
	})
}

// flush appends pending records in order and stops at the first failure.
func (t *Tracker) flush(ctx context.Context) error {
	for len(t.pending) > 0 {
		rec := t.pending[0]
		id, err := t.sink.Append(ctx, rec)
		if err != nil {
			t.storeFailures++
			t.lastStoreErr = err
			t.log.Warn("append failed, record kept for retry",
				"application", rec.ApplicationName, "duration", rec.Duration,
				"pending", len(t.pending), "consecutive_failures", t.storeFailures, "error", err)
			if t.storeFailures == t.storeThreshold {
				t.log.Error("store degraded", "consecutive_failures", t.storeFailures)
			}
			return err
		}
		t.storeFailures = 0
		t.lastStoreErr = nil
		t.pending = t.pending[1:]
		t.recorded++
		t.log.Info("recorded activity", "id", id,
			"application", rec.ApplicationName, "title", rec.WindowTitle, "duration", rec.Duration)
	}
	t.pending = nil
	return nil
}

type Status struct {
	Running         bool             `json:"running"`
	Identity        *entity.Identity `json:"current_identity,omitempty"`
	Since           time.Time        `json:"since,omitempty"`
	Pending         int              `json:"pending"`
	Recorded        int              `json:"recorded"`
	SamplerFailures int              `json:"sampler_failures"`
	StoreFailures   int              `json:"store_failures"`
	SamplerDegraded bool             `json:"sampler_degraded"`
	StoreDegraded   bool             `json:"store_degraded"`
	LastError       string           `json:"last_error,omitempty"`
}

func (s Status) Degraded() bool {
	return s.SamplerDegraded || s.StoreDegraded
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Status{
		Running:         t.running,
		Pending:         len(t.pending),
		Recorded:        t.recorded,
		SamplerFailures: t.samplerFailures,
		StoreFailures:   t.storeFailures,
		SamplerDegraded: t.samplerFailures >= t.samplerThreshold,
		StoreDegraded:   t.storeFailures >= t.storeThreshold,
	}
	if t.current != nil {
		id := t.current.identity
		st.Identity = &id
		st.Since = t.current.startedAt
	}
	switch {
	case t.lastStoreErr != nil:
		st.LastError = t.lastStoreErr.Error()
	case t.lastSamplerErr != nil:
		st.LastError = t.lastSamplerErr.Error()
	}
	return st
}
