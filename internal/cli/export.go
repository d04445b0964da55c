package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stocklite/stocklite/internal/export"
	"github.com/stocklite/stocklite/internal/model"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	From   string
	To     string
	Output string
}

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export [item-id]",
		Short: "Export history as CSV",
		Long: `Write history events as CSV (UTF-8 with BOM, CRLF line endings),
oldest first. The default range is the trailing 365 days.

Without --output the file is named after today's date (and the item,
for a per-item export) in the current directory. Use "-o -" for stdout.

Examples:
  stocklite export
  stocklite export 0192f3a1 --from 2026-01-01
  stocklite export -o - > history.csv`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var itemID *string
			if len(args) == 1 {
				itemID = &args[0]
			}
			return runExport(opts, itemID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "earliest event time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "latest event time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file, or - for stdout")

	return cmd
}

func runExport(opts *ExportOptions, itemID *string, cmd *cobra.Command) error {
	ctx := context.Background()

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	from, to, err := parseRange(opts.From, opts.To, e.rec.Location())
	if err != nil {
		return err
	}
	r := export.Range{From: from, To: to}
	x := export.New(e.store, e.clock)

	write := func(w io.Writer) error {
		if itemID == nil {
			return x.WriteCSV(ctx, w, r)
		}
		return x.WriteItemCSV(ctx, w, *itemID, r)
	}

	if opts.Output == "-" {
		if err := write(cmd.OutOrStdout()); err != nil {
			return WrapExitError(ExitFailure, "export failed", err)
		}
		return nil
	}

	path := opts.Output
	if path == "" {
		var item *model.Item
		if itemID != nil {
			it, ok := e.lookupItem(*itemID)
			if !ok {
				it = model.Item{ID: *itemID}
			}
			item = &it
		}
		path = export.Filename(e.clock.Now().In(e.rec.Location()), item)
	}

	n, err := writeFile(path, write)
	if err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}
	e.log.Debug("export written", "path", path, "bytes", n)

	if e.out.JSON() {
		return e.out.Success(ExportResult{Path: path, Bytes: n})
	}
	return e.out.Success(fmt.Sprintf("wrote %d bytes to %s", n, path))
}

// writeFile writes through fn, removing the file if fn fails.
func writeFile(path string, fn func(io.Writer) error) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: f}
	bw := bufio.NewWriter(cw)
	err = fn(bw)
	if err == nil {
		err = bw.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
