package store

import (
	"fmt"
	"time"

	"github.com/stocklite/stocklite/internal/model"
)

// eventColumns is the column list shared by every event SELECT.
const eventColumns = `id, item_id, type, delta, qty_before, qty_after, name, category, at_ms, meta`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a row selected with eventColumns into an Event.
func scanEvent(row rowScanner) (model.Event, error) {
	var ev model.Event
	var typ, metaJSON string
	var atMillis int64

	if err := row.Scan(
		&ev.ID, &ev.ItemID, &typ, &ev.Delta, &ev.QtyBefore, &ev.QtyAfter,
		&ev.Name, &ev.Category, &atMillis, &metaJSON,
	); err != nil {
		return model.Event{}, fmt.Errorf("scan event: %w", err)
	}

	ev.Type = model.EventType(typ)
	ev.At = fromMillis(atMillis)

	meta, err := model.UnmarshalMeta(metaJSON)
	if err != nil {
		return model.Event{}, fmt.Errorf("scan event %s: %w", ev.ID, err)
	}
	ev.Meta = meta

	return ev, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
