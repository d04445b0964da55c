// Package config resolves stocklite settings from a YAML file and XDG
// default paths.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stocklite/stocklite/internal/catalog"
	"github.com/stocklite/stocklite/internal/retention"
)

// AppName names the XDG subdirectories.
const AppName = "stocklite"

// Config is the resolved configuration. Keys missing from the file keep
// their Default values.
type Config struct {
	// Database is the SQLite history file.
	Database string `yaml:"database"`

	// Catalog is the item catalog (.yaml, .yml or .cue). Optional.
	Catalog string `yaml:"catalog,omitempty"`

	// Timezone names the zone used for calendar days: "local" or an IANA name.
	Timezone string `yaml:"timezone"`

	// Categories lists the allowed item categories in display order.
	Categories []string `yaml:"categories"`

	Retention Retention `yaml:"retention"`
	Log       Log       `yaml:"log"`
}

// Retention bounds the history log. Zero disables a bound.
type Retention struct {
	MaxAgeDays int `yaml:"max_age_days"`
	MaxEvents  int `yaml:"max_events"`
}

// Log configures the CLI logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:   DefaultDatabasePath(),
		Timezone:   "local",
		Categories: catalog.DefaultCategories(),
		Retention: Retention{
			MaxAgeDays: int(retention.DefaultMaxAge / (24 * time.Hour)),
			MaxEvents:  retention.DefaultMaxEvents,
		},
		Log: Log{Level: "info"},
	}
}

// DataDir returns the directory holding the history database. It checks
// STOCKLITE_DIR first, then the XDG data home.
func DataDir() string {
	if explicit := os.Getenv("STOCKLITE_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), AppName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName)
}

// DefaultDatabasePath returns the default SQLite file location.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), "history.db")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	xdg.Reload()
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load reads the config at path. An empty path means DefaultPath, which
// may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// relative paths are relative to the config file
	dir := filepath.Dir(path)
	cfg.Database = resolve(dir, cfg.Database)
	cfg.Catalog = resolve(dir, cfg.Catalog)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks field ranges and names.
func (c Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.Retention.MaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("retention.max_age_days must be >= 0, got %d", c.Retention.MaxAgeDays))
	}
	if c.Retention.MaxEvents < 0 {
		errs = append(errs, fmt.Errorf("retention.max_events must be >= 0, got %d", c.Retention.MaxEvents))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy converts the retention section.
func (c Config) Policy() retention.Policy {
	return retention.Policy{
		MaxAge:    time.Duration(c.Retention.MaxAgeDays) * 24 * time.Hour,
		MaxEvents: int64(c.Retention.MaxEvents),
	}
}

// Location resolves Timezone. "local" and "" mean time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LogLevel parses Log.Level ("debug", "info", "warn", "error").
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
