package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stocklite/stocklite/internal/model"
)

// MaxQty bounds quantity and threshold.
const MaxQty = 999

// IDChange records that events filed under OldID (or, when OldID is empty,
// id-less events named Name) now belong to NewID.
type IDChange struct {
	OldID string
	NewID string
	Name  string
}

// itemNamespace scopes the name-based UUIDs given to id-less items.
var itemNamespace = uuid.MustParse("3b9f6d2e-4c1a-5e8b-9f70-2a6c8d4e1b35")

// DerivedID returns the id an id-less item receives. It depends only on
// the item's name and on how many earlier id-less entries share that name,
// so loading the same unsaved catalog again yields the same id.
func DerivedID(name string, occurrence int) string {
	key := name
	if occurrence > 0 {
		key = fmt.Sprintf("%s#%d", name, occurrence)
	}
	return uuid.NewSHA1(itemNamespace, []byte(key)).String()
}

// Normalize repairs items in place and returns the identifier changes the
// event log must follow.
//
// Names are trimmed, quantity and threshold are clamped to 0..MaxQty and a
// missing version becomes 1. An item without an id gets DerivedID; an
// item whose LegacyID differs from its id keeps its id. Either case yields
// an IDChange.
func (c *Catalog) Normalize() []IDChange {
	var changes []IDChange
	seen := map[string]int{}
	for i := range c.Entries {
		e := &c.Entries[i]
		it := &e.Item

		it.Name = strings.TrimSpace(it.Name)
		it.Qty = clamp(it.Qty)
		it.Threshold = clamp(it.Threshold)
		if it.Version < 1 {
			it.Version = 1
		}

		switch {
		case it.ID == "":
			it.ID = DerivedID(it.Name, seen[it.Name])
			seen[it.Name]++
			changes = append(changes, IDChange{OldID: e.LegacyID, NewID: it.ID, Name: it.Name})
		case e.LegacyID != "" && e.LegacyID != it.ID:
			changes = append(changes, IDChange{OldID: e.LegacyID, NewID: it.ID, Name: it.Name})
		}
	}
	return changes
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	if n > MaxQty {
		return MaxQty
	}
	return n
}

// Reconciler applies identity changes to the event log.
// *history.Recorder implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, oldID, newID, name string) int64
	FillMissingNames(ctx context.Context, items []model.Item) int64
}

// SyncResult summarises a Sync.
type SyncResult struct {
	Changes     []IDChange `json:"changes"`
	Reassigned  int64      `json:"reassigned"`
	NamesFilled int64      `json:"names_filled"`
}

// Sync normalizes c, reattaches events for every identifier change and
// then fills blank event names from the catalog. It is safe to repeat
// whether or not the normalized catalog is saved.
func Sync(ctx context.Context, c *Catalog, r Reconciler) SyncResult {
	res := SyncResult{Changes: c.Normalize()}
	for _, ch := range res.Changes {
		res.Reassigned += r.Reconcile(ctx, ch.OldID, ch.NewID, ch.Name)
	}
	res.NamesFilled = r.FillMissingNames(ctx, c.Items())
	return res
}
