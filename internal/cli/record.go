package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stocklite/stocklite/internal/history"
	"github.com/stocklite/stocklite/internal/model"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Type     string
	Delta    int64
	Before   int64
	After    int64
	Name     string
	Category string
	At       string
	Origin   string

	// edit only
	SetName      string
	SetCategory  string
	SetThreshold int64
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <item-id>",
		Short: "Append one history event",
		Long: `Append one history event for an item.

For increment and decrement, give --before and --delta (--after is
derived); a decrement that would go below zero is refused. For edit,
give --before and --after (--delta is derived) and any of --set-name,
--set-category or --set-threshold; changed fields are kept in meta.
Name, category and threshold default to the catalog entry for the item.

Examples:
  stocklite record 0192f3a1 --type increment --before 2 --delta 1
  stocklite record 0192f3a1 --type edit --before 3 --after 1 --origin form
  stocklite record 0192f3a1 --type edit --before 3 --set-name 低脂肪乳
  stocklite record 0192f3a1 --type delete --before 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "event type: increment|decrement|edit|create|delete|restore (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().Int64Var(&opts.Delta, "delta", 0, "quantity change")
	cmd.Flags().Int64Var(&opts.Before, "before", 0, "quantity before the change")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "quantity after the change")
	cmd.Flags().StringVar(&opts.Name, "name", "", "item name snapshot")
	cmd.Flags().StringVar(&opts.Category, "category", "", "item category snapshot")
	cmd.Flags().StringVar(&opts.At, "at", "", "event time, RFC 3339 (default now)")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "where the change came from (stored in meta)")
	cmd.Flags().StringVar(&opts.SetName, "set-name", "", "new item name (edit)")
	cmd.Flags().StringVar(&opts.SetCategory, "set-category", "", "new item category (edit)")
	cmd.Flags().Int64Var(&opts.SetThreshold, "set-threshold", 0, "new refill threshold (edit)")

	return cmd
}

func runRecord(opts *RecordOptions, itemID string, cmd *cobra.Command) error {
	ctx := context.Background()

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	in, err := buildNewEvent(opts, e.recordBase(opts, itemID), cmd)
	if err != nil {
		return err
	}
	if in.At, err = parseTimeFlag("at", opts.At, e.rec.Location(), false); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return argError("invalid event", err)
	}

	ev, ok := e.rec.Append(ctx, in)
	if !ok {
		return WrapExitError(ExitFailure, "event not recorded", fmt.Errorf("see log for details"))
	}

	if e.out.JSON() {
		return e.out.Success(ev)
	}
	return e.out.Success(fmt.Sprintf("recorded %s %s %+d (%d -> %d) as %s",
		itemLabel(model.Item{ID: ev.ItemID, Name: ev.Name}), ev.Type, ev.Delta, ev.QtyBefore, ev.QtyAfter, ev.ID))
}

// recordBase is the item as it stood before the recorded change: the
// catalog entry overlaid with --name, --category and --before.
func (e *env) recordBase(opts *RecordOptions, itemID string) model.Item {
	base := model.Item{ID: itemID}
	if it, ok := e.lookupItem(itemID); ok {
		base = it
	}
	if opts.Name != "" {
		base.Name = opts.Name
	}
	if opts.Category != "" {
		base.Category = opts.Category
	}
	base.Qty = opts.Before
	return base
}

// buildNewEvent turns the flags into an event through the history
// constructors, filling in the quantity field the user left implicit.
func buildNewEvent(opts *RecordOptions, base model.Item, cmd *cobra.Command) (model.NewEvent, error) {
	typ := model.EventType(opts.Type)
	if !model.ValidEventTypes[typ] {
		return model.NewEvent{}, argError(fmt.Sprintf("invalid --type %q", opts.Type), nil)
	}

	flags := cmd.Flags()
	deltaSet, afterSet := flags.Changed("delta"), flags.Changed("after")
	editSet := flags.Changed("set-name") || flags.Changed("set-category") || flags.Changed("set-threshold")
	if editSet && typ != model.EventEdit {
		return model.NewEvent{}, argError("--set-name, --set-category and --set-threshold need --type edit", nil)
	}

	var in model.NewEvent
	switch typ {
	case model.EventIncrement, model.EventDecrement:
		switch {
		case afterSet:
			delta := opts.After - opts.Before
			if deltaSet {
				delta = opts.Delta
			}
			in = history.Adjusted(base, delta)
			in.Delta, in.QtyAfter = delta, opts.After
		case deltaSet:
			in = history.Adjusted(base, opts.Delta)
			if in.Delta != opts.Delta {
				return model.NewEvent{}, argError(fmt.Sprintf("%s of %d would take quantity %d below zero", typ, -opts.Delta, opts.Before), nil)
			}
		default:
			return model.NewEvent{}, argError(fmt.Sprintf("%s needs --delta or --after", typ), nil)
		}
		in.Type = typ

	case model.EventEdit:
		edited := base
		if flags.Changed("set-name") {
			edited.Name = opts.SetName
		}
		if flags.Changed("set-category") {
			edited.Category = opts.SetCategory
		}
		if flags.Changed("set-threshold") {
			edited.Threshold = opts.SetThreshold
		}
		switch {
		case afterSet:
			edited.Qty = opts.After
		case deltaSet:
			edited.Qty = opts.Before + opts.Delta
		case !editSet:
			return model.NewEvent{}, argError("edit needs --delta, --after or a --set-* flag", nil)
		}
		in = history.Edited(base, edited, opts.Origin)
		if deltaSet {
			in.Delta = opts.Delta
		}
		return in, nil

	case model.EventCreate:
		base.Qty = opts.After
		in = history.Created(base)
	case model.EventRestore:
		base.Qty = opts.After
		in = history.Restored(base)
	case model.EventDelete:
		in = history.Deleted(base)
	}

	if opts.Origin != "" {
		in.Meta = &model.Meta{Origin: opts.Origin}
	}
	return in, nil
}
