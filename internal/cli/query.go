package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stocklite/stocklite/internal/history"
	"github.com/stocklite/stocklite/internal/store"
)

// QueryOptions holds flags shared by the history and recent commands.
type QueryOptions struct {
	*RootOptions
	Limit  int
	Cursor string
	From   string
	To     string
}

func (o *QueryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.Limit, "limit", history.DefaultLimit, "events per page")
	cmd.Flags().StringVar(&o.Cursor, "cursor", "", "resume after a previous page")
	cmd.Flags().StringVar(&o.From, "from", "", "earliest event time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.To, "to", "", "latest event time (RFC 3339 or YYYY-MM-DD)")
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <item-id>",
		Short: "Page through one item's history",
		Long: `List one item's events, most recent first.

When more events exist the output ends with a cursor; pass it back with
--cursor to read the next page.

Examples:
  stocklite history 0192f3a1
  stocklite history 0192f3a1 --limit 20 --cursor MTc2MDQ...
  stocklite history 0192f3a1 --from 2026-10-01 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := args[0]
			return runQuery(opts, cmd, func(ctx context.Context, rec *history.Recorder, q history.QueryOptions) (history.Page, error) {
				return rec.QueryByItem(ctx, itemID, q)
			})
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewRecentCommand creates the recent command.
func NewRecentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Page through history across all items",
		Long: `List events for every item, most recent first, with the same
paging as the history command.

Examples:
  stocklite recent --limit 10
  stocklite recent --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ctx context.Context, rec *history.Recorder, q history.QueryOptions) (history.Page, error) {
				return rec.QueryAll(ctx, q)
			})
		},
	}
	opts.bind(cmd)

	return cmd
}

type pageFunc func(ctx context.Context, rec *history.Recorder, q history.QueryOptions) (history.Page, error)

func runQuery(opts *QueryOptions, cmd *cobra.Command, query pageFunc) error {
	ctx := context.Background()

	if opts.Limit < 1 {
		return argError(fmt.Sprintf("invalid --limit %d: must be at least 1", opts.Limit), nil)
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	from, to, err := parseRange(opts.From, opts.To, e.rec.Location())
	if err != nil {
		return err
	}

	page, err := query(ctx, e.rec, history.QueryOptions{
		From:   from,
		To:     to,
		Limit:  opts.Limit,
		Cursor: opts.Cursor,
	})
	if errors.Is(err, store.ErrInvalidCursor) {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeInvalidCursor, Message: "invalid --cursor", Err: err}
	}
	if err != nil {
		return storageError("failed to query history", err)
	}

	if e.out.JSON() {
		return e.out.Success(page)
	}

	if len(page.Events) == 0 {
		return e.out.Success("No events found.")
	}

	rows := make([]table.Row, 0, len(page.Events))
	for _, ev := range page.Events {
		rows = append(rows, table.Row{
			ev.At.In(e.rec.Location()).Format("2006-01-02 15:04:05"),
			ev.ItemID,
			truncate(ev.Name),
			truncate(ev.Category),
			string(ev.Type),
			strconv.FormatInt(ev.Delta, 10),
			fmt.Sprintf("%d -> %d", ev.QtyBefore, ev.QtyAfter),
		})
	}
	e.out.Table(table.Row{"Time", "Item", "Name", "Category", "Type", "Delta", "Qty"}, rows)

	if page.NextCursor != "" {
		fmt.Fprintf(e.out.Writer, "next cursor: %s\n", page.NextCursor)
	}
	return nil
}
