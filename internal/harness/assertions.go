package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/stocklite/stocklite/internal/history"
	"github.com/stocklite/stocklite/internal/model"
	"github.com/stocklite/stocklite/internal/trend"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// assertCount checks the total number of stored events.
func assertCount(ctx context.Context, rec *history.Recorder, a Assertion) error {
	ids, err := pageIDs(ctx, rec, nil, 0)
	if err != nil {
		return err
	}
	if int64(len(ids)) != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d events", a.Count),
			Actual:   fmt.Sprintf("%d events %v", len(ids), ids),
		}
	}
	return nil
}

// assertPageIDs pages to exhaustion and compares the id sequence.
func assertPageIDs(ctx context.Context, rec *history.Recorder, a Assertion) error {
	ids, err := pageIDs(ctx, rec, a.ItemID, a.Limit)
	if err != nil {
		return err
	}
	want := a.IDs
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(ids, want) {
		return &AssertionError{
			Type:     AssertPageIDs,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", ids),
		}
	}
	return nil
}

// pageIDs follows NextCursor until it is empty.
func pageIDs(ctx context.Context, rec *history.Recorder, itemID *string, limit int) ([]string, error) {
	ids := []string{}
	opts := history.QueryOptions{Limit: limit}
	for {
		var page history.Page
		var err error
		if itemID != nil {
			page, err = rec.QueryByItem(ctx, *itemID, opts)
		} else {
			page, err = rec.QueryAll(ctx, opts)
		}
		if err != nil {
			return nil, fmt.Errorf("query history: %w", err)
		}
		for _, ev := range page.Events {
			ids = append(ids, ev.ID)
		}
		if page.NextCursor == "" {
			return ids, nil
		}
		opts.Cursor = page.NextCursor
	}
}

// assertDailyNet compares the daily series. Dates missing from Expect
// must be zero.
func assertDailyNet(ctx context.Context, rec *history.Recorder, a Assertion) error {
	var points []trend.Point
	var err error
	if a.ItemID != nil {
		points, err = rec.DailyNetByItem(ctx, *a.ItemID, trend.Options{Days: a.Days, Timezone: trend.Local})
	} else {
		points, err = rec.DailyNet(ctx, a.Days)
	}
	if err != nil {
		return fmt.Errorf("daily net: %w", err)
	}

	seen := make(map[string]bool, len(points))
	var diffs []string
	for _, p := range points {
		seen[p.Date] = true
		if want := a.Expect[p.Date]; p.Net != want {
			diffs = append(diffs, fmt.Sprintf("%s: got %d, want %d", p.Date, p.Net, want))
		}
	}
	for date := range a.Expect {
		if !seen[date] {
			diffs = append(diffs, fmt.Sprintf("%s: outside the %d-day window", date, a.Days))
		}
	}

	if len(diffs) > 0 {
		slices.Sort(diffs)
		return &AssertionError{
			Type:     AssertDailyNet,
			Expected: fmt.Sprintf("%v", a.Expect),
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

// assertEvent checks selected fields of one event (subset match).
func assertEvent(ctx context.Context, rec *history.Recorder, a Assertion) error {
	ev, found, err := findEvent(ctx, rec, a.ID)
	if err != nil {
		return err
	}
	if !found {
		return &AssertionError{
			Type:     AssertEvent,
			Expected: fmt.Sprintf("event %s", a.ID),
			Actual:   "not found",
		}
	}

	actual, err := eventFields(ev)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return &AssertionError{
				Type:     AssertEvent,
				Expected: fmt.Sprintf("%s.%s = %v", a.ID, k, a.Fields[k]),
				Actual:   "field missing",
			}
		}
		if !valuesEqual(got, a.Fields[k]) {
			return &AssertionError{
				Type:     AssertEvent,
				Expected: fmt.Sprintf("%s.%s = %v", a.ID, k, a.Fields[k]),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

func findEvent(ctx context.Context, rec *history.Recorder, id string) (model.Event, bool, error) {
	opts := history.QueryOptions{}
	for {
		page, err := rec.QueryAll(ctx, opts)
		if err != nil {
			return model.Event{}, false, fmt.Errorf("query history: %w", err)
		}
		for _, ev := range page.Events {
			if ev.ID == id {
				return ev, true, nil
			}
		}
		if page.NextCursor == "" {
			return model.Event{}, false, nil
		}
		opts.Cursor = page.NextCursor
	}
}

// eventFields flattens an event to its JSON field map, so scenario keys
// match the wire names (item_id, qty_before, ...).
func eventFields(ev model.Event) (map[string]any, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return fields, nil
}

// valuesEqual compares a JSON-decoded value against a YAML-decoded one.
// JSON numbers arrive as float64 and YAML integers as int, so scalars are
// compared by their printed form.
func valuesEqual(actual, expected any) bool {
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

// EvaluateAssertions evaluates all assertions against the recorder's log.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(ctx context.Context, rec *history.Recorder, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCount:
			err = assertCount(ctx, rec, assertion)
		case AssertPageIDs:
			err = assertPageIDs(ctx, rec, assertion)
		case AssertDailyNet:
			err = assertDailyNet(ctx, rec, assertion)
		case AssertEvent:
			err = assertEvent(ctx, rec, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
