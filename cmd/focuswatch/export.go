package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"focuswatch/manager"
	"focuswatch/sampler"
)

func exportCmd(opts *globalOptions) *cobra.Command {
	var format, output, period, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write activity records as JSON or YAML",
		Args:  cobra.NoArgs,
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

			// export only reads, so no platform sampler is needed
			ctrl := manager.NewController(db, sampler.Static{}, manager.Options{Logger: logger})
			if err := ctrl.Ready(cmd.Context()); err != nil {
				return explain(err)
			}

			var w io.Writer = os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			res, err := ctrl.Export(cmd.Context(), w, format, tr)
			if err != nil {
				return explain(err)
			}
			if output != "" && output != "-" {
				fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", len(res.Records), output)
			}
			if res.Partial() {
				fmt.Fprintf(os.Stderr, "warning: %d unreadable records skipped\n", res.Corrupt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&period, "period", "", "day, week, month, year or all (default all)")
	cmd.Flags().StringVar(&from, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to include (YYYY-MM-DD)")

	return cmd
}
