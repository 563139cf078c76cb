package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"focuswatch/query"
)

func summaryCmd(opts *globalOptions) *cobra.Command {
	var period, from, to string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total time per application",
		Long: `Sum recorded durations per application. All window titles of an
application are counted together. Use --period (day, week, month, year, all)
or --from/--to dates (YYYY-MM-DD, inclusive).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := summaryRange(period, from, to, time.Now())
			if err != nil {
				return err
			}
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			db, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			sum, err := db.SummaryByApplication(cmd.Context(), tr)
			if err != nil {
				return explain(err)
			}
			if len(sum.Items) == 0 && sum.Corrupt == 0 {
				fmt.Println("No activity in this range.")
				return nil
			}

			var total time.Duration
			for _, it := range sum.Items {
				total += it.Total
			}
			fmt.Println(styled(headerStyle, fmt.Sprintf("%-30s  %12s  %6s  %s", "APPLICATION", "TIME", "SHARE", "SESSIONS")))
			for _, it := range sum.Items {
				share := 0.0
				if total > 0 {
					share = 100 * float64(it.Total) / float64(total)
				}
				fmt.Printf("%-30s  %12s  %5.1f%%  %s\n",
					truncate(it.ApplicationName, 30), formatDuration(it.Total), share, humanize.Comma(int64(it.Records)))
			}
			fmt.Println(styled(dimStyle, fmt.Sprintf("%-30s  %12s", "total", formatDuration(total))))
			if sum.Corrupt > 0 {
				fmt.Fprintln(os.Stderr, styled(warnStyle, fmt.Sprintf("warning: %d unreadable records skipped", sum.Corrupt)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "day, week, month, year or all (default all)")
	cmd.Flags().StringVar(&from, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to include (YYYY-MM-DD)")

	return cmd
}

func summaryRange(period, from, to string, now time.Time) (query.TimeRange, error) {
	if period != "" {
		if from != "" || to != "" {
			return query.TimeRange{}, fmt.Errorf("--period cannot be combined with --from/--to")
		}
		return query.PeriodRange(period, now), nil
	}
	var tr query.TimeRange
	if from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, now.Location())
		if err != nil {
			return tr, fmt.Errorf("bad --from date: %w", err)
		}
		tr.From = t
	}
	if to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, now.Location())
		if err != nil {
			return tr, fmt.Errorf("bad --to date: %w", err)
		}
		tr.To = t.AddDate(0, 0, 1)
	}
	if !tr.From.IsZero() && !tr.To.IsZero() && !tr.From.Before(tr.To) {
		return tr, fmt.Errorf("--from must not be after --to")
	}
	return tr, nil
}
