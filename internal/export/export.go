// Package export serializes history events to CSV.
//
// Output is a UTF-8 byte-order mark, a fixed header row, then one row per
// event in ascending (at, id) order with CRLF line endings. The same event
// set and range always produce the same bytes.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/stocklite/stocklite/internal/history"
	"github.com/stocklite/stocklite/internal/model"
	"github.com/stocklite/stocklite/internal/store"
)

// BOM is the UTF-8 byte-order mark written before the header.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Header is the fixed column row.
var Header = []string{"timestamp", "itemId", "name", "category", "type", "delta", "qty_before", "qty_after"}

// TimestampLayout renders event times as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DefaultWindow is the trailing span exported when a Range bound is zero.
const DefaultWindow = 365 * 24 * time.Hour

// Source scans events in ascending order.
type Source interface {
	Scan(ctx context.Context, q store.ScanQuery, fn func(model.Event) error) error
}

// Range bounds an export, inclusive. A zero From means now minus
// DefaultWindow; a zero To means now.
type Range struct {
	From time.Time
	To   time.Time
}

// Exporter writes CSV from a Source.
type Exporter struct {
	src   Source
	clock history.Clock
}

// New creates an Exporter. A nil clock uses the system clock.
func New(src Source, clock history.Clock) *Exporter {
	if clock == nil {
		clock = history.SystemClock{}
	}
	return &Exporter{src: src, clock: clock}
}

// WriteCSV writes every event in r across all items.
func (x *Exporter) WriteCSV(ctx context.Context, w io.Writer, r Range) error {
	return x.write(ctx, w, nil, r)
}

// WriteItemCSV writes the events of one item in r.
func (x *Exporter) WriteItemCSV(ctx context.Context, w io.Writer, itemID string, r Range) error {
	return x.write(ctx, w, &itemID, r)
}

// Bytes returns WriteCSV output as a byte slice.
func (x *Exporter) Bytes(ctx context.Context, r Range) ([]byte, error) {
	var buf bytes.Buffer
	if err := x.WriteCSV(ctx, &buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ItemBytes returns WriteItemCSV output as a byte slice.
func (x *Exporter) ItemBytes(ctx context.Context, itemID string, r Range) ([]byte, error) {
	var buf bytes.Buffer
	if err := x.WriteItemCSV(ctx, &buf, itemID, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Resolve fills zero bounds relative to now.
func (r Range) Resolve(now time.Time) Range {
	if r.To.IsZero() {
		r.To = now
	}
	if r.From.IsZero() {
		r.From = now.Add(-DefaultWindow)
	}
	return r
}

func (x *Exporter) write(ctx context.Context, w io.Writer, itemID *string, r Range) error {
	r = r.Resolve(x.clock.Now())

	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export csv: header: %w", err)
	}

	err := x.src.Scan(ctx, store.ScanQuery{
		ItemID: itemID,
		From:   r.From,
		To:     r.To,
	}, func(ev model.Event) error {
		return cw.Write(record(ev))
	})
	if err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export csv: flush: %w", err)
	}
	return nil
}

func record(ev model.Event) []string {
	return []string{
		ev.At.UTC().Format(TimestampLayout),
		ev.ItemID,
		ev.Name,
		ev.Category,
		string(ev.Type),
		strconv.FormatInt(ev.Delta, 10),
		strconv.FormatInt(ev.QtyBefore, 10),
		strconv.FormatInt(ev.QtyAfter, 10),
	}
}
