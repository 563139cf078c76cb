package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"focuswatch/entity"
	"focuswatch/query"
	"focuswatch/sampler"
)

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *tickClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// scriptedSampler returns the identities in order, repeating the last one,
// and advances the clock by one second per sample.
func scriptedSampler(clk *tickClock, ids ...entity.Identity) (sampler.Sampler, func() int) {
	var mu sync.Mutex
	n := 0
	s := sampler.Func(func(context.Context) (entity.Identity, bool, error) {
		mu.Lock()
		defer mu.Unlock()
		i := n
		if i >= len(ids) {
			i = len(ids) - 1
		}
		n++
		if n > 1 {
			clk.advance(time.Second)
		}
		return ids[i], true, nil
	})
	return s, func() int {
		mu.Lock()
		defer mu.Unlock()
		return n
	}
}

func newController(t *testing.T, ids ...entity.Identity) (*Controller, *query.Database, func() int) {
	t.Helper()
	db, err := query.Open("sqlite", filepath.Join(t.TempDir(), "activity.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := &tickClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	s, count := scriptedSampler(clk, ids...)
	ctrl := NewController(db, s, Options{Interval: time.Millisecond, Clock: clk})
	return ctrl, db, count
}

var (
	editor  = entity.Identity{ApplicationName: "editor", WindowTitle: "main.go"}
	browser = entity.Identity{ApplicationName: "browser", WindowTitle: "docs"}
)

func TestStartRequiresInitializedStorage(t *testing.T) {
	ctrl, _, _ := newController(t, editor)
	ctx := context.Background()

	err := ctrl.Start(ctx)
	require.ErrorIs(t, err, query.ErrNotInitialized)
	assert.False(t, ctrl.Status().Running)

	_, err = ctrl.Recent(ctx, 5)
	assert.ErrorIs(t, err, query.ErrNotInitialized)
}

func TestStartStopLifecycle(t *testing.T) {
	ctrl, _, count := newController(t, editor, editor, browser)
	ctx := context.Background()

	require.NoError(t, ctrl.InitStorage(ctx))
	require.NoError(t, ctrl.InitStorage(ctx))
	require.NoError(t, ctrl.Start(ctx))
	require.NoError(t, ctrl.Start(ctx), "second start is a no-op")
	assert.True(t, ctrl.Status().Running)

	require.Eventually(t, func() bool { return count() >= 5 }, 2*time.Second, time.Millisecond)

	require.NoError(t, ctrl.Stop(ctx))
	require.NoError(t, ctrl.Stop(ctx))
	st := ctrl.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.Identity)

	res, err := ctrl.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "browser", res.Records[0].ApplicationName)
	assert.Equal(t, "editor", res.Records[1].ApplicationName)
	assert.Equal(t, 2*time.Second, res.Records[1].Duration)
	assert.Equal(t, res.Records[1].EndTime(), res.Records[0].StartTime)

	sum, err := ctrl.Summary(ctx, query.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, sum.Totals()["editor"])
}

func TestStopWithoutStart(t *testing.T) {
	ctrl, _, _ := newController(t, editor)
	assert.NoError(t, ctrl.Stop(context.Background()))
}

func TestStopRetriesAfterCancelledFlush(t *testing.T) {
	ctrl, _, count := newController(t, editor)
	ctx := context.Background()

	require.NoError(t, ctrl.InitStorage(ctx))
	require.NoError(t, ctrl.Start(ctx))
	require.Eventually(t, func() bool { return count() >= 3 }, 2*time.Second, time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, ctrl.Stop(cancelled))
	assert.Equal(t, 1, ctrl.Status().Pending)

	require.NoError(t, ctrl.Stop(ctx))
	assert.Zero(t, ctrl.Status().Pending)

	res, err := ctrl.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "editor", res.Records[0].ApplicationName)
}

func TestExportFormats(t *testing.T) {
	ctrl, db, _ := newController(t, editor)
	ctx := context.Background()
	require.NoError(t, ctrl.InitStorage(ctx))

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := db.Append(ctx, entity.ActivityRecord{ApplicationName: "editor", WindowTitle: "a", StartTime: start, Duration: 90 * time.Second})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = ctrl.Export(ctx, &buf, "json", query.TimeRange{})
	require.NoError(t, err)
	var doc exportDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Records, 1)
	assert.Equal(t, 90.0, doc.Records[0].DurationSeconds)
	assert.Equal(t, "editor", doc.Records[0].ApplicationName)

	buf.Reset()
	_, err = ctrl.Export(ctx, &buf, "yaml", query.TimeRange{})
	require.NoError(t, err)
	var ydoc exportDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &ydoc))
	require.Len(t, ydoc.Records, 1)
	assert.True(t, ydoc.Records[0].StartTime.Equal(start))

	_, err = ctrl.Export(ctx, &buf, "csv", query.TimeRange{})
	assert.Error(t, err)
}
