package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:           "focuswatch",
		Short:         "Record which window has focus and how long you spend in each application",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/focuswatch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(initdbCmd(&opts))
	rootCmd.AddCommand(runCmd(&opts))
	rootCmd.AddCommand(viewCmd(&opts))
	rootCmd.AddCommand(summaryCmd(&opts))
	rootCmd.AddCommand(statusCmd(&opts))
	rootCmd.AddCommand(watchCmd(&opts))
	rootCmd.AddCommand(exportCmd(&opts))
	rootCmd.AddCommand(trayCmd(&opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
