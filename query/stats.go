package query

import (
	"context"
	"sort"
	"time"
)

// TimeRange filters records on start time, From inclusive and To exclusive.
// A zero bound is open. Records are attributed wholly to the range their
// start falls in.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

func (r TimeRange) where() (string, []any) {
	switch {
	case !r.From.IsZero() && !r.To.IsZero():
		return ` WHERE start_time >= ? AND start_time < ?`, []any{r.From.UTC().Format(timeLayout), r.To.UTC().Format(timeLayout)}
	case !r.From.IsZero():
		return ` WHERE start_time >= ?`, []any{r.From.UTC().Format(timeLayout)}
	case !r.To.IsZero():
		return ` WHERE start_time < ?`, []any{r.To.UTC().Format(timeLayout)}
	default:
		return "", nil
	}
}

type SummaryItem struct {
	ApplicationName string        `json:"application_name" yaml:"application_name"`
	Total           time.Duration `json:"total" yaml:"total"`
	Seconds         float64       `json:"seconds" yaml:"seconds"`
	Records         int           `json:"records" yaml:"records"`
}

// Summary lists totals by application, largest first, ties broken by name.
type Summary struct {
	Items   []SummaryItem `json:"items"`
	Corrupt int           `json:"corrupt"`
}

// Totals flattens the summary into application name → total duration.
func (s Summary) Totals() map[string]time.Duration {
	m := make(map[string]time.Duration, len(s.Items))
	for _, it := range s.Items {
		m[it.ApplicationName] = it.Total
	}
	return m
}

// SummaryByApplication sums durations per application name over the records
// in r. Window titles are ignored, so every title session of one application
// lands in the same bucket.
func (db *Database) SummaryByApplication(ctx context.Context, r TimeRange) (Summary, error) {
	sum := Summary{Items: []SummaryItem{}}
	if err := db.checkReady(ctx, "summary"); err != nil {
		return sum, err
	}
	where, args := r.where()
	var rows []activityRow
	if err := db.SelectContext(ctx, &rows, selectActivity+where, args...); err != nil {
		return sum, ioFailure("summary", err)
	}

	byApp := make(map[string]*SummaryItem)
	for _, row := range rows {
		record, err := row.decode()
		if err != nil {
			sum.Corrupt++
			db.log.Warn("skipping corrupt activity record", "error", corrupt(row.ID, err))
			continue
		}
		it, ok := byApp[record.ApplicationName]
		if !ok {
			it = &SummaryItem{ApplicationName: record.ApplicationName}
			byApp[record.ApplicationName] = it
		}
		it.Total += record.Duration
		it.Records++
	}

	for _, it := range byApp {
		it.Seconds = it.Total.Seconds()
		sum.Items = append(sum.Items, *it)
	}
	sort.Slice(sum.Items, func(i, j int) bool {
		if sum.Items[i].Total != sum.Items[j].Total {
			return sum.Items[i].Total > sum.Items[j].Total
		}
		return sum.Items[i].ApplicationName < sum.Items[j].ApplicationName
	})
	return sum, nil
}

// PeriodRange returns the range covering the current day, the last 7 days,
// the last month or the last year, in now's location. Unknown periods mean week.
func PeriodRange(period string, now time.Time) TimeRange {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, 1)
	var start time.Time
	switch period {
	case "day", "today":
		start = today
	case "week":
		start = today.AddDate(0, 0, -6) // include today + previous 6 days
	case "month":
		start = today.AddDate(0, -1, 1)
	case "year":
		start = today.AddDate(-1, 0, 1)
	case "all":
		return TimeRange{}
	default:
		start = today.AddDate(0, 0, -6)
	}
	return TimeRange{From: start, To: end}
}
