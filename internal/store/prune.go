package store

import (
	"context"
	"fmt"
	"time"
)

// Count returns the total number of stored events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// DeleteBefore removes every event whose timestamp is strictly older than cutoff.
// Uses the at_ms index. Returns the number of rows removed.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM history_events WHERE at_ms < ?
	`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete events before: rows affected: %w", err)
	}
	return n, nil
}

// DeleteOldest removes the n oldest events by (at_ms, id) ascending.
// n <= 0 is a no-op. Returns the number of rows removed.
func (s *Store) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM history_events
		WHERE id IN (
			SELECT id FROM history_events
			ORDER BY at_ms ASC, id COLLATE BINARY ASC
			LIMIT ?
		)
	`, n)
	if err != nil {
		return 0, fmt.Errorf("delete %d oldest events: %w", n, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete oldest events: rows affected: %w", err)
	}
	return deleted, nil
}
