package store

import (
	"context"
	"fmt"
)

// Reassign rewrites the item reference of stored events. It matches every
// event whose item_id equals oldID (when oldID is non-empty), plus every
// event with an empty item_id whose name snapshot equals name (when name is
// non-empty). Matched events get item_id = newID and, if name is given,
// name = name.
//
// This is the only in-place mutation the log permits. Reassigning the same
// (oldID, newID) pair twice affects no rows the second time.
// Returns the number of rows rewritten.
func (s *Store) Reassign(ctx context.Context, oldID, newID, name string) (int64, error) {
	if newID == "" {
		return 0, fmt.Errorf("reassign events: new id must not be empty")
	}
	if oldID == "" && name == "" {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE history_events
		SET item_id = ?,
		    name = CASE WHEN ? <> '' THEN ? ELSE name END
		WHERE (? <> '' AND item_id = ?)
		   OR (item_id = '' AND ? <> '' AND name = ?)
	`,
		newID,
		name, name,
		oldID, oldID,
		name, name,
	)
	if err != nil {
		return 0, fmt.Errorf("reassign events %q -> %q: %w", oldID, newID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign events: rows affected: %w", err)
	}
	return n, nil
}

// FillNames sets the name snapshot of events that have none, using names
// keyed by item id. Events that already carry a name are left untouched.
// Returns the number of rows updated.
func (s *Store) FillNames(ctx context.Context, names map[string]string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("fill names: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE history_events SET name = ?
		WHERE item_id = ? AND name = ''
	`)
	if err != nil {
		return 0, fmt.Errorf("fill names: prepare: %w", err)
	}
	defer stmt.Close()

	var total int64
	for id, name := range names {
		if id == "" || name == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, name, id)
		if err != nil {
			return 0, fmt.Errorf("fill names for %q: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("fill names: rows affected: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("fill names: commit: %w", err)
	}
	return total, nil
}
