package history

import (
	"context"

	"github.com/stocklite/stocklite/internal/model"
)

// Reconcile reattaches events to an item whose identifier changed.
//
// Every event whose item id equals oldID, and every event with no item id
// whose name snapshot equals name, is rewritten to newID (and to name, when
// given). Reconcile never fails the caller: errors are logged and no match
// is a no-op. Repeating a call has no further effect.
//
// Matching blank ids by name is ambiguous when two items share a name; the
// first item reconciled claims those events.
//
// Returns the number of events rewritten.
func (r *Recorder) Reconcile(ctx context.Context, oldID, newID, name string) int64 {
	n, err := r.store.Reassign(ctx, oldID, newID, name)
	if err != nil {
		r.log.Warn("history reconcile failed",
			"old_id", oldID,
			"new_id", newID,
			"name", name,
			"error", err,
		)
		return 0
	}
	if n > 0 {
		r.log.Info("history reconciled",
			"old_id", oldID,
			"new_id", newID,
			"events", n,
		)
	}
	return n
}

// FillMissingNames copies current item names onto events that were
// recorded without a name snapshot. Events that already have a name keep
// it. Like Reconcile, failures are logged, not returned.
func (r *Recorder) FillMissingNames(ctx context.Context, items []model.Item) int64 {
	names := make(map[string]string, len(items))
	for _, it := range items {
		if it.ID != "" && it.Name != "" {
			names[it.ID] = it.Name
		}
	}

	n, err := r.store.FillNames(ctx, names)
	if err != nil {
		r.log.Warn("history fill names failed", "error", err)
		return 0
	}
	return n
}
