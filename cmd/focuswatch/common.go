package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"

	"focuswatch/config"
	"focuswatch/logging"
	"focuswatch/manager"
	"focuswatch/query"
	"focuswatch/sampler"
)

type globalOptions struct {
	configPath string
	dbPath     string
	verbose    bool
}

func (o *globalOptions) load() (*config.Config, hclog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.dbPath != "" {
		if cfg.DBPath, err = config.ExpandPath(o.dbPath); err != nil {
			return nil, nil, err
		}
	}
	level := cfg.LogLevel
	if o.verbose {
		level = "debug"
	}
	return cfg, logging.New(level, os.Stderr), nil
}

func openStore(cfg *config.Config, logger hclog.Logger) (*query.Database, error) {
	db, err := query.Open(cfg.Driver, cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// newController wires the store, the configured sampler and the tracker.
func newController(cfg *config.Config, db *query.Database, logger hclog.Logger) (*manager.Controller, error) {
	smp, err := sampler.New(cfg.Sampler)
	if err != nil {
		return nil, err
	}
	return manager.NewController(db, smp, manager.Options{
		Interval:                cfg.Interval(),
		Logger:                  logger,
		SamplerFailureThreshold: cfg.SamplerFailureThreshold,
		StoreFailureThreshold:   cfg.StoreFailureThreshold,
	}), nil
}

// explain turns store errors into something actionable on the command line.
func explain(err error) error {
	switch {
	case errors.Is(err, query.ErrNotInitialized):
		return fmt.Errorf("%w (run 'focuswatch initdb' first)", err)
	case errors.Is(err, query.ErrIOFailure):
		return fmt.Errorf("storage unavailable: %w", err)
	default:
		return err
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func styled(s lipgloss.Style, text string) string {
	if !isTerminal() {
		return text
	}
	return s.Render(text)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
