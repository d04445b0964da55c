package history

import "github.com/stocklite/stocklite/internal/model"

// Event constructors for item-management code. Each returns the NewEvent
// to pass to Append for one observed mutation, with before/after
// quantities and name/category snapshots filled from the item.

// Adjusted describes a +/- quantity change. Quantities never drop below
// zero, so the recorded delta is the change actually applied. The type
// follows the sign of the requested delta, so a decrement refused at zero
// is still a decrement.
func Adjusted(item model.Item, delta int64) model.NewEvent {
	after := item.Qty + delta
	if after < 0 {
		after = 0
	}
	typ := model.EventIncrement
	if delta < 0 {
		typ = model.EventDecrement
	}
	return model.NewEvent{
		ItemID:    item.ID,
		Type:      typ,
		Delta:     after - item.Qty,
		QtyBefore: item.Qty,
		QtyAfter:  after,
		Name:      item.Name,
		Category:  item.Category,
	}
}

// Edited describes a form edit. Delta is the quantity change (zero for a
// metadata-only edit) and Meta lists changed name/category/threshold.
// The snapshot uses the edited values.
func Edited(before, after model.Item, origin string) model.NewEvent {
	ev := model.NewEvent{
		ItemID:    after.ID,
		Type:      model.EventEdit,
		Delta:     after.Qty - before.Qty,
		QtyBefore: before.Qty,
		QtyAfter:  after.Qty,
		Name:      after.Name,
		Category:  after.Category,
	}
	changes := model.EditChanges(before, after)
	if changes != nil || origin != "" {
		ev.Meta = &model.Meta{Origin: origin, Changes: changes}
	}
	return ev
}

// Created describes a newly added item. Only presence changes, so delta is 0.
func Created(item model.Item) model.NewEvent {
	return model.NewEvent{
		ItemID:    item.ID,
		Type:      model.EventCreate,
		QtyBefore: 0,
		QtyAfter:  item.Qty,
		Name:      item.Name,
		Category:  item.Category,
	}
}

// Deleted describes removal of an item.
func Deleted(item model.Item) model.NewEvent {
	return model.NewEvent{
		ItemID:    item.ID,
		Type:      model.EventDelete,
		QtyBefore: item.Qty,
		QtyAfter:  0,
		Name:      item.Name,
		Category:  item.Category,
	}
}

// Restored describes an undeleted item.
func Restored(item model.Item) model.NewEvent {
	return model.NewEvent{
		ItemID:    item.ID,
		Type:      model.EventRestore,
		QtyBefore: 0,
		QtyAfter:  item.Qty,
		Name:      item.Name,
		Category:  item.Category,
	}
}
