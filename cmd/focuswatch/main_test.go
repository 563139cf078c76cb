package main

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focuswatch/query"
)

func TestSummaryRange(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	tr, err := summaryRange("", "", "", now)
	require.NoError(t, err)
	assert.True(t, tr.IsZero())

	tr, err = summaryRange("day", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, query.PeriodRange("day", now), tr)

	tr, err = summaryRange("", "2026-03-01", "2026-03-02", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), tr.From)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), tr.To, "--to is inclusive")

	_, err = summaryRange("week", "2026-03-01", "", now)
	assert.Error(t, err)
	_, err = summaryRange("", "2026-03-05", "2026-03-01", now)
	assert.Error(t, err)
	_, err = summaryRange("", "yesterday", "", now)
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h 00m 15s", formatDuration(15*time.Second))
	assert.Equal(t, "2h 05m 01s", formatDuration(2*time.Hour+5*time.Minute+time.Second+400*time.Millisecond))
}

func TestExplainAddsInitHint(t *testing.T) {
	err := explain(&query.StoreError{Kind: query.ErrNotInitialized, Op: "recent"})
	assert.ErrorIs(t, err, query.ErrNotInitialized)
	assert.Contains(t, err.Error(), "focuswatch initdb")

	plain := errors.New("boom")
	assert.Equal(t, plain, explain(plain))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestDBFlagExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	opts := globalOptions{configPath: filepath.Join(home, "missing.toml"), dbPath: "~/track/activity.db"}
	cfg, logger, err := opts.load()
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Equal(t, filepath.Join(home, "track", "activity.db"), cfg.DBPath)
}
