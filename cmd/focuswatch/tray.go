package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"focuswatch/launch/tray"
	"focuswatch/web"
)

func trayCmd(opts *globalOptions) *cobra.Command {
	var icon string

	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Track from a system tray icon with start/stop controls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
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
			if err := ctrl.Ready(cmd.Context()); err != nil {
				return explain(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if _, err := web.StartServer(ctx, cfg.WebAddr, web.NewServer(ctrl, logger)); err != nil {
				logger.Warn("control API disabled", "addr", cfg.WebAddr, "error", err)
			}

			if icon == "" {
				if exe, err := os.Executable(); err == nil {
					icon = filepath.Join(filepath.Dir(exe), "icon.ico")
				}
			}
			tray.New(ctrl, "http://"+cfg.WebAddr+"/api/summary?period=day", icon, logger).Run()
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "Tray icon file (default icon.ico next to the executable)")

	return cmd
}
