package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stocklite/stocklite/internal/trend"
)

// TrendOptions holds flags for the trend command.
type TrendOptions struct {
	*RootOptions
	Days     int
	Timezone string
}

// TrendResult is the JSON payload of the trend command.
type TrendResult struct {
	ItemID string        `json:"item_id,omitempty"`
	Days   int           `json:"days"`
	Points []trend.Point `json:"points"`
}

// NewTrendCommand creates the trend command.
func NewTrendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trend [item-id]",
		Short: "Daily net quantity change",
		Long: `Show the net quantity change per local calendar day over the
trailing --days days, oldest first. Days without changes show 0.
Without an item id, all items are combined.

Examples:
  stocklite trend 0192f3a1 --days 30
  stocklite trend --days 7 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := ""
			if len(args) == 1 {
				itemID = args[0]
			}
			return runTrend(opts, itemID, len(args) == 1, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Days, "days", 30, "number of days, ending today")
	cmd.Flags().StringVar(&opts.Timezone, "timezone", string(trend.Local), "day boundaries (only \"local\" is supported)")

	return cmd
}

func runTrend(opts *TrendOptions, itemID string, perItem bool, cmd *cobra.Command) error {
	ctx := context.Background()

	// fail before opening anything
	to := trend.Options{Days: opts.Days, Timezone: trend.Timezone(opts.Timezone)}
	if err := to.Validate(); err != nil {
		return argError("invalid trend options", err)
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var points []trend.Point
	if perItem {
		points, err = e.rec.DailyNetByItem(ctx, itemID, to)
	} else {
		points, err = e.rec.DailyNet(ctx, opts.Days)
	}
	if errors.Is(err, trend.ErrInvalidDays) || errors.Is(err, trend.ErrUnsupportedTimezone) {
		return argError("invalid trend options", err)
	}
	if err != nil {
		return storageError("failed to aggregate history", err)
	}

	if e.out.JSON() {
		return e.out.Success(TrendResult{ItemID: itemID, Days: opts.Days, Points: points})
	}

	rows := make([]table.Row, 0, len(points))
	for _, p := range points {
		rows = append(rows, table.Row{p.Date, p.Net, bar(p.Net)})
	}
	e.out.Table(table.Row{"Date", "Net", ""}, rows)
	return nil
}

// bar draws |net| marks, capped, signed by direction.
func bar(net int64) string {
	const maxBar = 20
	n := net
	mark := "+"
	if n < 0 {
		n, mark = -n, "-"
	}
	if n > maxBar {
		n = maxBar
	}
	return strings.Repeat(mark, int(n))
}
