package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stocklite/stocklite/internal/model"
)

// PageQuery selects one descending page of events.
type PageQuery struct {
	// ItemID restricts the page to one item when non-nil. A pointer to ""
	// selects legacy events with no item reference.
	ItemID *string

	// From and To bound the timestamp range, inclusive. Zero means unbounded.
	From time.Time
	To   time.Time

	// Limit is the maximum number of events returned. Must be positive.
	Limit int

	// After resumes strictly after this position in descending order,
	// i.e. only strictly earlier (at, id) keys are considered.
	After *Position
}

// Page is one page of events in descending (at, id) order.
type Page struct {
	Events []model.Event

	// Next is the position of the last returned event when more matching
	// events exist beyond this page, nil otherwise.
	Next *Position
}

// QueryPage returns events matching q in descending (at, id) order.
//
// One extra row is fetched to decide whether a further page exists, so Next
// is non-nil iff more matching events remain. Because the resume condition is
// a strict comparison on the total order, events inserted between calls never
// shift page boundaries: newer events sort before the cursor and are never
// revisited, older ones are picked up when the scan reaches them.
//
// Returns an empty slice (not nil) when nothing matches. A storage error
// discards any rows already read.
func (s *Store) QueryPage(ctx context.Context, q PageQuery) (Page, error) {
	if q.Limit <= 0 {
		return Page{}, fmt.Errorf("query page: limit must be positive, got %d", q.Limit)
	}

	where, args := rangeFilter(q.ItemID, q.From, q.To)
	if q.After != nil {
		at := toMillis(q.After.At)
		where = append(where, "(at_ms < ? OR (at_ms = ? AND id < ? COLLATE BINARY))")
		args = append(args, at, at, q.After.ID)
	}
	args = append(args, q.Limit+1)

	query := `SELECT ` + eventColumns + ` FROM history_events` +
		whereClause(where) +
		` ORDER BY at_ms DESC, id COLLATE BINARY DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query page: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0, q.Limit+1)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return Page{}, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate page: %w", err)
	}

	page := Page{Events: events}
	if len(events) > q.Limit {
		page.Events = events[:q.Limit]
		last := PositionOf(page.Events[q.Limit-1])
		page.Next = &last
	}
	return page, nil
}

// ScanQuery selects events for an ascending range scan.
type ScanQuery struct {
	// ItemID restricts the scan to one item when non-nil.
	ItemID *string

	// From and To bound the timestamp range, inclusive. Zero means unbounded.
	From time.Time
	To   time.Time

	// Types restricts the scan to the given event types when non-empty.
	Types []model.EventType
}

// Scan calls fn for every event matching q in ascending (at, id) order.
// Iteration stops at the first error from fn or from storage.
func (s *Store) Scan(ctx context.Context, q ScanQuery, fn func(model.Event) error) error {
	where, args := rangeFilter(q.ItemID, q.From, q.To)
	if len(q.Types) > 0 {
		placeholders := make([]string, len(q.Types))
		for i, t := range q.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "type IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + eventColumns + ` FROM history_events` +
		whereClause(where) +
		` ORDER BY at_ms ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("scan events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate events: %w", err)
	}
	return nil
}

// ReadEvent retrieves a single event by ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadEvent(ctx context.Context, id string) (model.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM history_events WHERE id = ?`, id)
	return scanEvent(row)
}

// rangeFilter builds the item/time predicates shared by pages and scans.
// With an item filter the planner uses idx_history_events_item_at,
// otherwise idx_history_events_at.
func rangeFilter(itemID *string, from, to time.Time) ([]string, []any) {
	var where []string
	var args []any
	if itemID != nil {
		where = append(where, "item_id = ?")
		args = append(args, *itemID)
	}
	if !from.IsZero() {
		where = append(where, "at_ms >= ?")
		args = append(args, toMillis(from))
	}
	if !to.IsZero() {
		where = append(where, "at_ms <= ?")
		args = append(args, toMillis(to))
	}
	return where, args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}
