package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func viewCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the most recent activity records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must not be negative")
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

			res, err := db.Recent(cmd.Context(), limit)
			if err != nil {
				return explain(err)
			}
			if len(res.Records) == 0 && res.Corrupt == 0 {
				fmt.Println("No activity recorded yet. Run 'focuswatch run' to start tracking.")
				return nil
			}

			fmt.Println(styled(headerStyle, fmt.Sprintf("%-20s  %-14s  %-24s  %-40s  %s",
				"STARTED", "", "APPLICATION", "WINDOW", "DURATION")))
			for _, r := range res.Records {
				local := r.StartTime.Local()
				fmt.Printf("%-20s  %-14s  %-24s  %-40s  %s\n",
					local.Format("2006-01-02 15:04:05"),
					styled(dimStyle, humanize.Time(local)),
					truncate(r.ApplicationName, 24),
					truncate(r.WindowTitle, 40),
					formatDuration(r.Duration),
				)
			}
			if res.Partial() {
				fmt.Fprintln(os.Stderr, styled(warnStyle, fmt.Sprintf("warning: %d unreadable records skipped", res.Corrupt)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of recent records to show")

	return cmd
}
