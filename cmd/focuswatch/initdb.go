package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initdbCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create or upgrade the activity database",
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

			if err := db.Init(cmd.Context()); err != nil {
				return fmt.Errorf("init db: %w", err)
			}
			fmt.Printf("Database ready at %s\n", db.Path())
			return nil
		},
	}
}
