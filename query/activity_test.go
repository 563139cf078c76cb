package query

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focuswatch/entity"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "data", "activity.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func initTestDB(t *testing.T) *Database {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, db.Init(context.Background()))
	return db
}

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func record(app, title string, startOffset, dur time.Duration) entity.ActivityRecord {
	return entity.ActivityRecord{
		ApplicationName: app,
		WindowTitle:     title,
		StartTime:       base.Add(startOffset),
		Duration:        dur,
	}
}

func TestOperationsBeforeInitReportNotInitialized(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Append(ctx, record("X", "", 0, time.Second))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = db.Recent(ctx, 10)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = db.SummaryByApplication(ctx, TimeRange{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.NoFileExists(t, db.Path(), "read and write paths must not create storage")
}

func TestInitIsIdempotentAndKeepsData(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	id, err := db.Append(ctx, record("X", "a", 0, 10*time.Second))
	require.NoError(t, err)
	assert.Positive(t, id)

	require.NoError(t, db.Init(ctx))

	version, err := db.GetDbVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbVersion, version)

	res, err := db.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, id, res.Records[0].ID)
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	first, err := db.Append(ctx, record("X", "", 0, time.Second))
	require.NoError(t, err)
	second, err := db.Append(ctx, record("Y", "", time.Second, time.Second))
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestAppendRejectsInvalidRecords(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	_, err := db.Append(ctx, record("X", "", 0, -time.Second))
	assert.Error(t, err)
	_, err = db.Append(ctx, record("", "", 0, time.Second))
	assert.Error(t, err)
}

func TestRecentOrdersNewestFirstAndRespectsLimit(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	for i, app := range []string{"A", "B", "C", "D"} {
		_, err := db.Append(ctx, record(app, "t", time.Duration(i)*time.Minute, 1500*time.Millisecond))
		require.NoError(t, err)
	}

	res, err := db.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "D", res.Records[0].ApplicationName)
	assert.Equal(t, "C", res.Records[1].ApplicationName)
	assert.Equal(t, "B", res.Records[2].ApplicationName)
	assert.Zero(t, res.Corrupt)

	r := res.Records[0]
	assert.True(t, r.StartTime.Equal(base.Add(3*time.Minute)))
	assert.Equal(t, 1500*time.Millisecond, r.Duration)
	assert.Equal(t, "t", r.WindowTitle)
	assert.Equal(t, entity.DefaultActivityType, r.ActivityType)

	empty, err := db.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty.Records)
}

func TestRecentOnEmptyStore(t *testing.T) {
	db := initTestDB(t)

	res, err := db.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.False(t, res.Partial())
}

func TestSummaryByApplication(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	for _, r := range []entity.ActivityRecord{
		record("X", "one", 0, 10*time.Second),
		record("X", "two", 10*time.Second, 5*time.Second),
		record("Y", "", 15*time.Second, 3*time.Second),
	} {
		_, err := db.Append(ctx, r)
		require.NoError(t, err)
	}

	sum, err := db.SummaryByApplication(ctx, TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Duration{"X": 15 * time.Second, "Y": 3 * time.Second}, sum.Totals())
	require.Len(t, sum.Items, 2)
	assert.Equal(t, "X", sum.Items[0].ApplicationName)
	assert.Equal(t, 2, sum.Items[0].Records)
	assert.InDelta(t, 15.0, sum.Items[0].Seconds, 1e-9)
}

func TestSummaryByApplicationFiltersOnStartTime(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	for _, r := range []entity.ActivityRecord{
		record("X", "", 0, 10*time.Second),
		record("X", "", time.Hour, 20*time.Second),
		record("Y", "", 2*time.Hour, 30*time.Second),
	} {
		_, err := db.Append(ctx, r)
		require.NoError(t, err)
	}

	sum, err := db.SummaryByApplication(ctx, TimeRange{From: base.Add(time.Hour), To: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Duration{"X": 20 * time.Second}, sum.Totals())

	sum, err = db.SummaryByApplication(ctx, TimeRange{From: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Duration{"X": 20 * time.Second, "Y": 30 * time.Second}, sum.Totals())
}

func TestSummaryOrderIsDeterministic(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	for _, app := range []string{"b", "a", "c"} {
		_, err := db.Append(ctx, record(app, "", 0, time.Second))
		require.NoError(t, err)
	}

	sum, err := db.SummaryByApplication(ctx, TimeRange{})
	require.NoError(t, err)
	names := []string{}
	for _, it := range sum.Items {
		names = append(names, it.ApplicationName)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestCorruptRecordsAreSkippedAndCounted(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := db.Append(ctx, record("X", "", time.Duration(i)*time.Minute, time.Second))
		require.NoError(t, err)
	}
	_, err := db.Exec(`INSERT INTO activities (start_time, application_name, window_title, duration, activity_type, date)
		VALUES (?, 'X', '', 'not-a-number', 'general', '2026-03-02')`, base.Add(10*time.Minute).Format(timeLayout))
	require.NoError(t, err)

	res, err := db.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, 1, res.Corrupt)
	assert.True(t, res.Partial())

	sum, err := db.SummaryByApplication(ctx, TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, sum.Totals()["X"])
	assert.Equal(t, 1, sum.Corrupt)

	hist, err := db.History(ctx, TimeRange{})
	require.NoError(t, err)
	assert.Len(t, hist.Records, 3)
	assert.Equal(t, 1, hist.Corrupt)
}

func TestRecentFillsLimitPastCorruptRows(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	_, err := db.Append(ctx, record("old", "", 0, time.Second))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO activities (start_time, application_name, window_title, duration, activity_type, date)
		VALUES ('garbage', 'X', '', 1, 'general', '2026-03-02')`)
	require.NoError(t, err)

	res, err := db.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "old", res.Records[0].ApplicationName)
	assert.Equal(t, 1, res.Corrupt)
}

func TestRecentPagesByKeyNotOffset(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	for i, app := range []string{"A", "B", "C"} {
		_, err := db.Append(ctx, record(app, "", time.Duration(i)*time.Minute, time.Second))
		require.NoError(t, err)
	}
	// D and E share a start time; id breaks the tie.
	for _, app := range []string{"D", "E"} {
		_, err := db.Append(ctx, record(app, "", 3*time.Minute, time.Second))
		require.NoError(t, err)
	}

	first, err := db.recentPage(ctx, nil, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "E", first[0].ApplicationName.String)

	// a record landing between pages must not shift the next page
	_, err = db.Append(ctx, record("F", "", 4*time.Minute, time.Second))
	require.NoError(t, err)

	var seen []string
	after := &first[0]
	for {
		page, err := db.recentPage(ctx, after, 2)
		require.NoError(t, err)
		for _, row := range page {
			seen = append(seen, row.ApplicationName.String)
		}
		if len(page) < 2 {
			break
		}
		after = &page[len(page)-1]
	}
	assert.Equal(t, []string{"D", "C", "B", "A"}, seen)
}

func TestDurationSurvivesRoundTrip(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	durations := []time.Duration{300 * time.Millisecond, 1100 * time.Millisecond, 2*time.Hour + 700*time.Millisecond}
	for i, d := range durations {
		_, err := db.Append(ctx, record("X", "", time.Duration(i)*time.Minute, d))
		require.NoError(t, err)
	}

	hist, err := db.History(ctx, TimeRange{})
	require.NoError(t, err)
	require.Len(t, hist.Records, len(durations))
	for i, d := range durations {
		assert.Equal(t, d, hist.Records[i].Duration)
	}
}

func TestHistoryIsOldestFirst(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	_, err := db.Append(ctx, record("B", "", time.Minute, time.Second))
	require.NoError(t, err)
	_, err = db.Append(ctx, record("A", "", 0, time.Second))
	require.NoError(t, err)

	hist, err := db.History(ctx, TimeRange{})
	require.NoError(t, err)
	require.Len(t, hist.Records, 2)
	assert.Equal(t, "A", hist.Records[0].ApplicationName)
}

func TestConcurrentReadsDuringAppends(t *testing.T) {
	db := initTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := db.Append(ctx, record("W", "", time.Duration(i)*time.Second, time.Second))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := db.SummaryByApplication(ctx, TimeRange{})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	sum, err := db.SummaryByApplication(ctx, TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 50*time.Second, sum.Totals()["W"])
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	day := PeriodRange("day", now)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), day.From)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), day.To)

	week := PeriodRange("week", now)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), week.From)

	assert.True(t, PeriodRange("all", now).IsZero())
	assert.Equal(t, week, PeriodRange("bogus", now))
}
