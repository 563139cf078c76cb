package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"focuswatch/query"
)

type exportRecord struct {
	ID              int64     `json:"id" yaml:"id"`
	StartTime       time.Time `json:"start_time" yaml:"start_time"`
	ApplicationName string    `json:"application_name" yaml:"application_name"`
	WindowTitle     string    `json:"window_title" yaml:"window_title"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`
	ActivityType    string    `json:"activity_type" yaml:"activity_type"`
}

type exportDoc struct {
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Corrupt    int            `json:"corrupt" yaml:"corrupt"`
	Records    []exportRecord `json:"records" yaml:"records"`
}

// Export writes every record in r to w as "json" or "yaml", oldest first.
func (c *Controller) Export(ctx context.Context, w io.Writer, format string, r query.TimeRange) (query.Result, error) {
	if format != "json" && format != "yaml" {
		return query.Result{}, fmt.Errorf("export: unknown format %q", format)
	}
	res, err := c.History(ctx, r)
	if err != nil {
		return res, err
	}

	doc := exportDoc{
		ExportedAt: time.Now().UTC(),
		Corrupt:    res.Corrupt,
		Records:    make([]exportRecord, 0, len(res.Records)),
	}
	for _, rec := range res.Records {
		doc.Records = append(doc.Records, exportRecord{
			ID:              rec.ID,
			StartTime:       rec.StartTime,
			ApplicationName: rec.ApplicationName,
			WindowTitle:     rec.WindowTitle,
			DurationSeconds: rec.Duration.Seconds(),
			ActivityType:    rec.ActivityType,
		})
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return res, fmt.Errorf("export yaml: %w", err)
		}
		return res, enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return res, fmt.Errorf("export json: %w", err)
	}
	return res, nil
}
