package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stocklite/stocklite/internal/catalog"
	"github.com/stocklite/stocklite/internal/config"
	"github.com/stocklite/stocklite/internal/history"
	"github.com/stocklite/stocklite/internal/model"
	"github.com/stocklite/stocklite/internal/store"
)

// env is the per-invocation runtime: resolved config, logger, database
// and recorder.
type env struct {
	cfg   config.Config
	log   *slog.Logger
	out   *OutputFormatter
	clock history.Clock
	store *store.Store
	rec   *history.Recorder
}

// loadConfig resolves config and installs the logger, without touching
// the database.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, ErrCode: ErrCodeConfig, Message: "failed to load config", Err: err}
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	// Configure logging based on config and verbose flag
	logLevel, _ := cfg.LogLevel()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	clock := opts.Clock
	if clock == nil {
		clock = history.SystemClock{}
	}

	return &env{
		cfg:   cfg,
		log:   logger,
		clock: clock,
		out: &OutputFormatter{
			Format:  opts.Format,
			Writer:  cmd.OutOrStdout(),
			Verbose: opts.Verbose,
		},
	}, nil
}

// openEnv resolves config and opens the history database.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	e, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}

	loc, _ := e.cfg.Location()

	if err := os.MkdirAll(filepath.Dir(e.cfg.Database), 0o755); err != nil {
		return nil, storageError("failed to create database directory", err)
	}
	e.log.Debug("opening database", "path", e.cfg.Database)
	st, err := store.Open(e.cfg.Database)
	if err != nil {
		return nil, storageError("failed to open database", err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = history.UUIDv7Generator{}
	}

	e.store = st
	e.rec = history.New(st,
		history.WithClock(e.clock),
		history.WithIDGenerator(ids),
		history.WithLocation(loc),
		history.WithPolicy(e.cfg.Policy()),
		history.WithLogger(e.log),
	)
	return e, nil
}

// Close waits for pending retention and closes the database.
func (e *env) Close() {
	if e.rec != nil {
		e.rec.Close()
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Error("error closing database", "error", err)
		}
	}
}

// lookupItem finds id in the configured catalog. A missing or unreadable
// catalog is not an error; the item is simply unknown.
func (e *env) lookupItem(id string) (model.Item, bool) {
	if e.cfg.Catalog == "" || id == "" {
		return model.Item{}, false
	}
	c, err := catalog.Load(e.cfg.Catalog)
	if err != nil {
		e.log.Warn("catalog unavailable", "path", e.cfg.Catalog, "error", err)
		return model.Item{}, false
	}
	return c.Find(id)
}

func itemLabel(it model.Item) string {
	if it.Name == "" {
		return it.ID
	}
	return fmt.Sprintf("%s (%s)", it.Name, it.ID)
}
