package cli

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "reconcile <old-id> <new-id>",
		Short: "Move history to a new item id",
		Long: `Reattach events recorded under <old-id> to <new-id>.

With --name, events that have no item id but carry that name are moved
too, and every moved event takes the name. Pass '' as <old-id> to match
by name only. Running the same reconcile twice changes nothing.

Examples:
  stocklite reconcile i_lx3k9_ab12cd 0192f3a1-7c4e-7b2a-9d10-3f2c1a0b9e02
  stocklite reconcile '' 0192f3a1-7c4e-7b2a-9d10-3f2c1a0b9e02 --name 歯磨き粉`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[1] == "" {
				return argError("<new-id> must not be empty", nil)
			}
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			n := e.rec.Reconcile(context.Background(), args[0], args[1], name)
			if e.out.JSON() {
				return e.out.Success(map[string]int64{"reassigned": n})
			}
			return e.out.Success(fmt.Sprintf("reassigned %d events to %s", n, args[1]))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "match id-less events by this name and refresh names")

	return cmd
}

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Apply the retention policy now",
		Long: `Delete events older than retention.max_age_days, then the oldest
events beyond retention.max_events. Retention also runs after every
recorded event; this command runs it on demand.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.rec.Prune(context.Background())
			if err != nil {
				return storageError("prune failed", err)
			}
			if e.out.JSON() {
				return e.out.Success(res)
			}
			e.out.Table(table.Row{"Expired", "Overflow", "Remaining"},
				[]table.Row{{res.Expired, res.Overflow, res.Remaining}})
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Delete all history",
		Long:          "Delete every history event. Requires --yes.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return argError("refusing to delete all history without --yes", nil)
			}
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.rec.Clear(context.Background()); err != nil {
				return storageError("clear failed", err)
			}
			return e.out.Success("history cleared")
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}
