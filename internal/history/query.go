package history

import (
	"context"
	"fmt"
	"time"

	"github.com/stocklite/stocklite/internal/model"
	"github.com/stocklite/stocklite/internal/store"
	"github.com/stocklite/stocklite/internal/trend"
)

// DefaultLimit is the page size used when QueryOptions.Limit is not positive.
const DefaultLimit = 50

// QueryOptions selects a page of history.
type QueryOptions struct {
	// From and To bound event time, inclusive. Zero means unbounded.
	From time.Time
	To   time.Time

	// Limit caps the page size; defaults to DefaultLimit.
	Limit int

	// Cursor resumes after the last event of a previous page.
	Cursor string
}

// Page is a descending page of events.
type Page struct {
	Events []model.Event `json:"events"`

	// NextCursor is non-empty iff more matching events exist.
	NextCursor string `json:"next_cursor"`
}

// QueryByItem returns events for itemID, most recent first.
//
// Concatenating pages from an empty cursor until NextCursor is empty yields
// every matching event exactly once in descending (at, id) order, even when
// events are appended between calls. A malformed cursor returns
// store.ErrInvalidCursor.
func (r *Recorder) QueryByItem(ctx context.Context, itemID string, opts QueryOptions) (Page, error) {
	return r.query(ctx, &itemID, opts)
}

// QueryAll returns events across all items, most recent first, with the
// same paging contract as QueryByItem.
func (r *Recorder) QueryAll(ctx context.Context, opts QueryOptions) (Page, error) {
	return r.query(ctx, nil, opts)
}

func (r *Recorder) query(ctx context.Context, itemID *string, opts QueryOptions) (Page, error) {
	q := store.PageQuery{
		ItemID: itemID,
		From:   opts.From,
		To:     opts.To,
		Limit:  opts.Limit,
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if opts.Cursor != "" {
		pos, err := store.DecodeCursor(opts.Cursor)
		if err != nil {
			return Page{}, err
		}
		q.After = &pos
	}

	res, err := r.store.QueryPage(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("query history: %w", err)
	}

	page := Page{Events: res.Events}
	if res.Next != nil {
		page.NextCursor = store.EncodeCursor(*res.Next)
	}
	return page, nil
}

// DailyNetByItem returns the net quantity change per local calendar day for
// itemID over the trailing opts.Days days, oldest first, zero-filled.
// Only increment, decrement and edit events count.
func (r *Recorder) DailyNetByItem(ctx context.Context, itemID string, opts trend.Options) ([]trend.Point, error) {
	return r.dailyNet(ctx, &itemID, opts)
}

// DailyNet is DailyNetByItem across all items combined.
func (r *Recorder) DailyNet(ctx context.Context, days int) ([]trend.Point, error) {
	return r.dailyNet(ctx, nil, trend.Options{Days: days, Timezone: trend.Local})
}

func (r *Recorder) dailyNet(ctx context.Context, itemID *string, opts trend.Options) ([]trend.Point, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	series := trend.NewSeries(r.clock.Now(), opts.Days, r.loc)
	from, to := series.Range()

	err := r.store.Scan(ctx, store.ScanQuery{
		ItemID: itemID,
		From:   from,
		To:     to,
		Types:  model.QuantityTypes,
	}, func(ev model.Event) error {
		series.Add(ev.At, ev.Delta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("daily net: %w", err)
	}

	return series.Points(), nil
}
