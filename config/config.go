package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "focuswatch"

type Config struct {
	DBPath                  string  `toml:"db_path"`
	Driver                  string  `toml:"driver"`
	IntervalSeconds         float64 `toml:"interval_seconds"`
	Sampler                 string  `toml:"sampler"`
	SamplerFailureThreshold int     `toml:"sampler_failure_threshold"`
	StoreFailureThreshold   int     `toml:"store_failure_threshold"`
	WebAddr                 string  `toml:"web_addr"`
	LogLevel                string  `toml:"log_level"`
}

func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		DBPath:                  filepath.Join(home, ".local", "share", appName, "activity.db"),
		Driver:                  "sqlite",
		IntervalSeconds:         2,
		Sampler:                 "auto",
		SamplerFailureThreshold: 30,
		StoreFailureThreshold:   3,
		WebAddr:                 "127.0.0.1:8765",
		LogLevel:                "info",
	}, nil
}

// DefaultPath is ~/.config/focuswatch/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the TOML file at path on top of the defaults. An empty path means
// DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	path = expandHome(path, home)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.Driver != "sqlite" && c.Driver != "sqlite3" {
		return fmt.Errorf("driver %q: want sqlite or sqlite3", c.Driver)
	}
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %v", c.IntervalSeconds)
	}
	if c.SamplerFailureThreshold < 1 {
		return fmt.Errorf("sampler_failure_threshold must be at least 1, got %d", c.SamplerFailureThreshold)
	}
	if c.StoreFailureThreshold < 1 {
		return fmt.Errorf("store_failure_threshold must be at least 1, got %d", c.StoreFailureThreshold)
	}
	return nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// ExpandPath resolves a leading "~/" against the user's home directory,
// the same way db_path in the config file is resolved.
func ExpandPath(path string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return expandHome(path, home), nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
