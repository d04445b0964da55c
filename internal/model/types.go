package model

import (
	"fmt"
	"time"
)

// EventType classifies an observed item mutation.
type EventType string

const (
	EventIncrement EventType = "increment"
	EventDecrement EventType = "decrement"
	EventEdit      EventType = "edit"
	EventCreate    EventType = "create"
	EventDelete    EventType = "delete"
	EventRestore   EventType = "restore"
)

// ValidEventTypes lists every accepted event type.
var ValidEventTypes = map[EventType]bool{
	EventIncrement: true,
	EventDecrement: true,
	EventEdit:      true,
	EventCreate:    true,
	EventDelete:    true,
	EventRestore:   true,
}

// QuantityTypes are the event types whose deltas reconstruct quantity history.
// Aggregation sums deltas over these types only.
var QuantityTypes = []EventType{EventIncrement, EventDecrement, EventEdit}

// AffectsQuantity reports whether t contributes to net quantity change.
func (t EventType) AffectsQuantity() bool {
	switch t {
	case EventIncrement, EventDecrement, EventEdit:
		return true
	}
	return false
}

// Event is one immutable history record.
type Event struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"` // empty for legacy records pending reconciliation
	Type      EventType `json:"type"`
	Delta     int64     `json:"delta"`
	QtyBefore int64     `json:"qty_before"`
	QtyAfter  int64     `json:"qty_after"`
	Name      string    `json:"name"`     // snapshot at event time
	Category  string    `json:"category"` // snapshot at event time
	At        time.Time `json:"at"`
	Meta      *Meta     `json:"meta,omitempty"`
}

// NewEvent is an event as supplied by item-management code: everything
// except the store-assigned ID. A zero At means "now".
type NewEvent struct {
	ItemID    string
	Type      EventType
	Delta     int64
	QtyBefore int64
	QtyAfter  int64
	Name      string
	Category  string
	At        time.Time
	Meta      *Meta
}

// Validate checks the structural invariants of an event before it is stored.
func (e NewEvent) Validate() error {
	if !ValidEventTypes[e.Type] {
		return fmt.Errorf("invalid event type %q", e.Type)
	}
	if e.QtyBefore < 0 || e.QtyAfter < 0 {
		return fmt.Errorf("quantities must be non-negative (before=%d, after=%d)", e.QtyBefore, e.QtyAfter)
	}
	if e.Type.AffectsQuantity() && e.QtyAfter != e.QtyBefore+e.Delta {
		return fmt.Errorf("%s event: qty_after %d != qty_before %d + delta %d",
			e.Type, e.QtyAfter, e.QtyBefore, e.Delta)
	}
	return nil
}

// Build stamps the event with its identity and timestamp.
// The timestamp is truncated to the millisecond and converted to UTC.
func (e NewEvent) Build(id string, at time.Time) Event {
	return Event{
		ID:        id,
		ItemID:    e.ItemID,
		Type:      e.Type,
		Delta:     e.Delta,
		QtyBefore: e.QtyBefore,
		QtyAfter:  e.QtyAfter,
		Name:      e.Name,
		Category:  e.Category,
		At:        NormalizeTime(at),
		Meta:      e.Meta,
	}
}

// NormalizeTime truncates t to millisecond precision in UTC.
func NormalizeTime(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}

// Meta holds optional structured event details.
type Meta struct {
	Origin  string                 `json:"origin,omitempty"`
	Changes map[string]FieldChange `json:"changes,omitempty"`
}

// Field names tracked in edit change sets.
const (
	FieldName      = "name"
	FieldCategory  = "category"
	FieldThreshold = "threshold"
)

// FieldChange records a before/after pair for one edited field.
// Values are strings (name, category) or int64 (threshold).
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// Item is the read-only view of a current inventory record.
// The item store owns it; history code only reads identity, name and category.
type Item struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Category     string    `json:"category" yaml:"category"`
	Qty          int64     `json:"qty" yaml:"qty"`
	Threshold    int64     `json:"threshold" yaml:"threshold"`
	LastRefillAt time.Time `json:"last_refill_at,omitzero" yaml:"last_refill_at,omitempty"`
	NextRefillAt time.Time `json:"next_refill_at,omitzero" yaml:"next_refill_at,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
	Deleted      bool      `json:"deleted" yaml:"deleted"`
	Version      int64     `json:"version" yaml:"version"`
}

// EditChanges compares two item snapshots and returns the changed
// name/category/threshold fields, or nil when none changed.
func EditChanges(before, after Item) map[string]FieldChange {
	changes := map[string]FieldChange{}
	if before.Name != after.Name {
		changes[FieldName] = FieldChange{Before: before.Name, After: after.Name}
	}
	if before.Category != after.Category {
		changes[FieldCategory] = FieldChange{Before: before.Category, After: after.Category}
	}
	if before.Threshold != after.Threshold {
		changes[FieldThreshold] = FieldChange{Before: before.Threshold, After: after.Threshold}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}
