package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"focuswatch/entity"
)

// timeLayout is fixed width so that text comparison on start_time orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Result is a list of decoded records plus the number of stored rows that had
// to be skipped because they could not be decoded.
type Result struct {
	Records []entity.ActivityRecord `json:"records"`
	Corrupt int                     `json:"corrupt"`
}

// Partial reports whether some rows were skipped.
func (r Result) Partial() bool {
	return r.Corrupt > 0
}

type activityRow struct {
	ID              int64          `db:"id"`
	StartTime       sql.NullString `db:"start_time"`
	ApplicationName sql.NullString `db:"application_name"`
	WindowTitle     sql.NullString `db:"window_title"`
	Duration        sql.NullString `db:"duration"`
	ActivityType    sql.NullString `db:"activity_type"`
}

const selectActivity = `SELECT id, start_time, application_name, window_title, duration, activity_type FROM activities`

func (row activityRow) decode() (entity.ActivityRecord, error) {
	if !row.StartTime.Valid {
		return entity.ActivityRecord{}, errors.New("missing start_time")
	}
	start, err := time.Parse(timeLayout, row.StartTime.String)
	if err != nil {
		return entity.ActivityRecord{}, fmt.Errorf("start_time: %w", err)
	}
	if !row.ApplicationName.Valid || row.ApplicationName.String == "" {
		return entity.ActivityRecord{}, errors.New("missing application_name")
	}
	if !row.Duration.Valid {
		return entity.ActivityRecord{}, errors.New("missing duration")
	}
	seconds, err := strconv.ParseFloat(row.Duration.String, 64)
	if err != nil {
		return entity.ActivityRecord{}, fmt.Errorf("duration: %w", err)
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return entity.ActivityRecord{}, fmt.Errorf("duration out of range: %v", seconds)
	}
	activityType := row.ActivityType.String
	if activityType == "" {
		activityType = entity.DefaultActivityType
	}
	return entity.ActivityRecord{
		ID:              row.ID,
		ApplicationName: row.ApplicationName.String,
		WindowTitle:     row.WindowTitle.String,
		StartTime:       start,
		Duration:        time.Duration(math.Round(seconds * float64(time.Second))),
		ActivityType:    activityType,
	}, nil
}

// Append persists one record in its own transaction and returns its id.
func (db *Database) Append(ctx context.Context, activity entity.ActivityRecord) (int64, error) {
	if activity.Duration < 0 {
		return 0, fmt.Errorf("append: negative duration %v", activity.Duration)
	}
	if activity.ApplicationName == "" {
		return 0, errors.New("append: empty application name")
	}
	if err := db.checkReady(ctx, "append"); err != nil {
		return 0, err
	}
	if activity.ActivityType == "" {
		activity.ActivityType = entity.DefaultActivityType
	}
	start := activity.StartTime.UTC()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, ioFailure("append", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO activities
        (start_time, application_name, window_title, duration, activity_type, date)
        VALUES (?, ?, ?, ?, ?, ?)`,
		start.Format(timeLayout),
		activity.ApplicationName,
		activity.WindowTitle,
		activity.Duration.Seconds(),
		activity.ActivityType,
		start.Format("2006-01-02"),
	)
	if err != nil {
		return 0, ioFailure("append", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, ioFailure("append", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, ioFailure("append", err)
	}
	return id, nil
}

// Recent returns up to limit records, newest start time first. Corrupt rows
// are skipped and do not count against limit.
func (db *Database) Recent(ctx context.Context, limit int) (Result, error) {
	res := Result{Records: []entity.ActivityRecord{}}
	if err := db.checkReady(ctx, "recent"); err != nil {
		return res, err
	}
	if limit <= 0 {
		return res, nil
	}

	var after *activityRow
	for len(res.Records) < limit {
		rows, err := db.recentPage(ctx, after, limit)
		if err != nil {
			return res, ioFailure("recent", err)
		}
		db.collect(&res, rows, limit)
		if len(rows) < limit {
			break
		}
		after = &rows[len(rows)-1]
	}
	return res, nil
}

// recentPage returns up to n rows newest first. With a non-nil after it
// continues strictly below after's (start_time, id) key, so rows appended
// between pages never shift the ones already seen.
func (db *Database) recentPage(ctx context.Context, after *activityRow, n int) ([]activityRow, error) {
	var rows []activityRow
	if after == nil {
		err := db.SelectContext(ctx, &rows,
			selectActivity+` ORDER BY start_time DESC, id DESC LIMIT ?`, n)
		return rows, err
	}
	err := db.SelectContext(ctx, &rows,
		selectActivity+` WHERE start_time < ? OR (start_time = ? AND id < ?)
        ORDER BY start_time DESC, id DESC LIMIT ?`,
		after.StartTime.String, after.StartTime.String, after.ID, n)
	return rows, err
}

// History returns every record whose start time falls in r, oldest first.
func (db *Database) History(ctx context.Context, r TimeRange) (Result, error) {
	res := Result{Records: []entity.ActivityRecord{}}
	if err := db.checkReady(ctx, "history"); err != nil {
		return res, err
	}
	where, args := r.where()
	var rows []activityRow
	if err := db.SelectContext(ctx, &rows, selectActivity+where+` ORDER BY start_time ASC, id ASC`, args...); err != nil {
		return res, ioFailure("history", err)
	}
	db.collect(&res, rows, 0)
	return res, nil
}

// collect decodes rows into res, stopping at limit when limit > 0.
func (db *Database) collect(res *Result, rows []activityRow, limit int) {
	for _, row := range rows {
		if limit > 0 && len(res.Records) >= limit {
			return
		}
		record, err := row.decode()
		if err != nil {
			res.Corrupt++
			db.log.Warn("skipping corrupt activity record", "error", corrupt(row.ID, err))
			continue
		}
		res.Records = append(res.Records, record)
	}
}
