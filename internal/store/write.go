package store

import (
	"context"
	"fmt"

	"github.com/stocklite/stocklite/internal/model"
)

// Insert appends one event to the log.
//
// The insert is a single statement keyed by the event's fresh ID, so it is
// atomic with respect to other writers. A duplicate ID is an error: IDs are
// never reused.
func (s *Store) Insert(ctx context.Context, ev model.Event) error {
	if ev.ID == "" {
		return fmt.Errorf("insert event: missing id")
	}

	metaJSON, err := model.MarshalMeta(ev.Meta)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history_events
		(id, item_id, type, delta, qty_before, qty_after, name, category, at_ms, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID,
		ev.ItemID,
		string(ev.Type),
		ev.Delta,
		ev.QtyBefore,
		ev.QtyAfter,
		ev.Name,
		ev.Category,
		toMillis(ev.At),
		metaJSON,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// DeleteAll removes every event unconditionally.
// Returns the number of rows removed.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history_events`)
	if err != nil {
		return 0, fmt.Errorf("delete all events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all events: rows affected: %w", err)
	}
	return n, nil
}
