package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stocklite/stocklite/internal/catalog"
	"github.com/stocklite/stocklite/internal/config"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the item catalog",
	}

	cmd.AddCommand(newCatalogSyncCommand(rootOpts))
	cmd.AddCommand(newCatalogInitCommand(rootOpts))

	return cmd
}

// CatalogSyncOptions holds flags for catalog sync.
type CatalogSyncOptions struct {
	*RootOptions
	Write bool
}

func newCatalogSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogSyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync [catalog-file]",
		Short: "Bring history in line with the catalog",
		Long: `Load the catalog, give id-less items an id, and move history for
any item whose id changed (id-less events are matched by name, events
under a legacy_id are matched by id). Blank event names are then filled
from the catalog. Safe to repeat.

With --write, the normalized catalog (new ids included) is saved back,
which only YAML catalogs support.

Examples:
  stocklite catalog sync
  stocklite catalog sync ./items.yaml --write`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogSync(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Write, "write", false, "save the normalized catalog")

	return cmd
}

func runCatalogSync(opts *CatalogSyncOptions, args []string, cmd *cobra.Command) error {
	ctx := context.Background()

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	path := e.cfg.Catalog
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return argError("no catalog: pass a file or set catalog in the config", nil)
	}

	c, err := catalog.Load(path)
	if err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeCatalog, Message: "failed to load catalog", Err: err}
	}
	if err := c.CheckCategories(e.cfg.Categories); err != nil {
		e.log.Warn("catalog has unknown categories", "path", path, "error", err)
	}

	res := catalog.Sync(ctx, c, e.rec)

	if opts.Write && len(res.Changes) > 0 {
		if err := catalog.Save(path, c); err != nil {
			return &ExitError{Code: ExitFailure, ErrCode: ErrCodeCatalog, Message: "failed to save catalog", Err: err}
		}
		e.log.Info("catalog saved", "path", path)
	}

	if e.out.JSON() {
		return e.out.Success(res)
	}

	if len(res.Changes) > 0 {
		rows := make([]table.Row, 0, len(res.Changes))
		for _, ch := range res.Changes {
			rows = append(rows, table.Row{ch.OldID, ch.NewID, truncate(ch.Name)})
		}
		e.out.Table(table.Row{"Old ID", "New ID", "Name"}, rows)
	}
	return e.out.Success(fmt.Sprintf("%d items, %d id changes, %d events reassigned, %d names filled",
		len(c.Entries), len(res.Changes), res.Reassigned, res.NamesFilled))
}

func newCatalogInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [catalog-file]",
		Short: "Write the starter catalog",
		Long: `Write the built-in starter items to a YAML catalog. The path
defaults to the configured catalog, else items.yaml in the data directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadConfig(rootOpts, cmd)
			if err != nil {
				return err
			}

			path := e.cfg.Catalog
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = filepath.Join(config.DataDir(), "items.yaml")
			}

			if _, err := os.Stat(path); err == nil && !force {
				return argError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return argError("cannot access "+path, err)
			}

			c := catalog.Presets(e.clock.Now())
			if err := catalog.Save(path, c); err != nil {
				return &ExitError{Code: ExitFailure, ErrCode: ErrCodeCatalog, Message: "failed to write catalog", Err: err}
			}

			if e.out.JSON() {
				return e.out.Success(map[string]any{"path": path, "items": len(c.Entries)})
			}
			return e.out.Success(fmt.Sprintf("wrote %d items to %s", len(c.Entries), path))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
