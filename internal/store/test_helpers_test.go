package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stocklite/stocklite/internal/model"
)

// baseTime is an arbitrary fixed instant used by store tests.
var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates a quantity event with minimal required fields.
func createTestEvent(id, itemID string, at time.Time, delta int64) model.Event {
	typ := model.EventIncrement
	before := int64(10)
	if delta < 0 {
		typ = model.EventDecrement
	}
	return model.Event{
		ID:        id,
		ItemID:    itemID,
		Type:      typ,
		Delta:     delta,
		QtyBefore: before,
		QtyAfter:  before + delta,
		Name:      "item " + itemID,
		Category:  "キッチン",
		At:        model.NormalizeTime(at),
	}
}

// mustInsert inserts events or fails the test.
func mustInsert(t *testing.T, s *Store, events ...model.Event) {
	t.Helper()
	for _, ev := range events {
		if err := s.Insert(context.Background(), ev); err != nil {
			t.Fatalf("Insert(%s) failed: %v", ev.ID, err)
		}
	}
}

// eventIDs returns the IDs of events in order.
func eventIDs(events []model.Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}

// seqID returns a zero-padded id so lexical order matches n.
func seqID(prefix string, n int) string {
	return fmt.Sprintf("%s-%05d", prefix, n)
}

func strPtr(s string) *string { return &s }

// getTableColumns returns column names for a table.
func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("table_info(%s) failed: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			t.Fatalf("scan table_info failed: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
