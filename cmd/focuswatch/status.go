package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"focuswatch/tracker"
	"focuswatch/web"
)

func statusCmd(opts *globalOptions) *cobra.Command {
	var start, stop bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running tracker",
		Long:  `Ask the tracker started with 'focuswatch run' (or 'tray') for its state over the control API. --start and --stop toggle tracking without ending the process.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if start && stop {
				return fmt.Errorf("--start and --stop are exclusive")
			}
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			client := web.NewClient(cfg.WebAddr)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			var st tracker.Status
			switch {
			case start:
				st, err = client.Start(ctx)
			case stop:
				st, err = client.Stop(ctx)
			default:
				st, err = client.Status(ctx)
			}
			if err != nil {
				return err
			}
			printStatus(st)
			return nil
		},
	}

	cmd.Flags().BoolVar(&start, "start", false, "Resume tracking")
	cmd.Flags().BoolVar(&stop, "stop", false, "Pause tracking and store the current session")

	return cmd
}

func printStatus(st tracker.Status) {
	state := "stopped"
	if st.Running {
		state = "running"
	}
	fmt.Printf("Tracker:  %s\n", state)
	if st.Identity != nil {
		fmt.Printf("Current:  %s", st.Identity.ApplicationName)
		if st.Identity.WindowTitle != "" {
			fmt.Printf(" | %s", truncate(st.Identity.WindowTitle, 60))
		}
		fmt.Printf("\nSince:    %s (%s)\n", st.Since.Local().Format("15:04:05"), humanize.Time(st.Since))
	}
	fmt.Printf("Recorded: %d this run, %d pending\n", st.Recorded, st.Pending)
	if st.SamplerDegraded {
		fmt.Println(styled(warnStyle, fmt.Sprintf("Sampler degraded: %d consecutive failures", st.SamplerFailures)))
	}
	if st.StoreDegraded {
		fmt.Println(styled(warnStyle, fmt.Sprintf("Store degraded: %d consecutive failures", st.StoreFailures)))
	}
	if st.LastError != "" {
		fmt.Println(styled(dimStyle, "Last error: "+st.LastError))
	}
}
