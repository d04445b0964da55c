package cli

import (
	"fmt"
	"time"
)

const dateFlagLayout = "2006-01-02"

// parseTimeFlag accepts RFC 3339 or a bare date in loc. A bare date means
// the start of that day, or its last millisecond when endOfDay is set, so
// "--from 2026-10-01 --to 2026-10-31" covers both whole days.
func parseTimeFlag(name, value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(dateFlagLayout, value, loc)
	if err != nil {
		return time.Time{}, argError(fmt.Sprintf("invalid --%s %q: want RFC 3339 or YYYY-MM-DD", name, value), nil)
	}
	if endOfDay {
		return day.AddDate(0, 0, 1).Add(-time.Millisecond), nil
	}
	return day, nil
}

// parseRange parses a --from/--to pair.
func parseRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	f, err := parseTimeFlag("from", from, loc, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := parseTimeFlag("to", to, loc, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return time.Time{}, time.Time{}, argError("--to is before --from", nil)
	}
	return f, t, nil
}
