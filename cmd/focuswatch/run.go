package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"focuswatch/web"
)

func runCmd(opts *globalOptions) *cobra.Command {
	var interval float64
	var noWeb bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track focus in the foreground until interrupted",
		Long: `Track the focused window in the foreground. Ctrl+C stops tracking and
stores the session in progress. Unless --no-web is given, a control API is
served on web_addr for 'status', 'watch' and other clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.IntervalSeconds = interval
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			db, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			ctrl, err := newController(cfg, db, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := ctrl.Start(ctx); err != nil {
				return explain(err)
			}
			if !noWeb {
				if _, err := web.StartServer(ctx, cfg.WebAddr, web.NewServer(ctrl, logger)); err != nil {
					logger.Warn("control API disabled", "addr", cfg.WebAddr, "error", err)
				}
			}
			fmt.Fprintf(os.Stderr, "Tracking every %v, database %s. Press Ctrl+C to stop.\n", cfg.Interval(), db.Path())

			<-ctx.Done()
			if err := ctrl.Stop(context.Background()); err != nil {
				return explain(err)
			}
			st := ctrl.Status()
			fmt.Fprintf(os.Stderr, "Stopped. %d records stored this run.\n", st.Recorded)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&interval, "interval", "i", 2, "Seconds between focus samples")
	cmd.Flags().BoolVar(&noWeb, "no-web", false, "Do not serve the control API")

	return cmd
}
