// Package trend buckets quantity deltas into calendar-day series for charts.
//
// A series covers the trailing N local calendar days ending today,
// inclusive, in ascending date order. Every day in the window has a point;
// days without qualifying events report zero.
package trend

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-day key format.
const DateLayout = "2006-01-02"

// Timezone selects how event timestamps map to calendar days.
type Timezone string

// Local buckets by the recorder's local time zone. It is the only
// supported value; the empty string means Local.
const Local Timezone = "local"

var (
	// ErrUnsupportedTimezone is returned for any timezone other than Local.
	ErrUnsupportedTimezone = errors.New("unsupported timezone")

	// ErrInvalidDays is returned when the window is shorter than one day.
	ErrInvalidDays = errors.New("days must be at least 1")
)

// Options configures a daily series.
type Options struct {
	Days     int
	Timezone Timezone
}

// Validate rejects unsupported options. It is checked before any storage
// access so bad arguments fail fast.
func (o Options) Validate() error {
	if o.Timezone != "" && o.Timezone != Local {
		return fmt.Errorf("%w: %q", ErrUnsupportedTimezone, o.Timezone)
	}
	if o.Days < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidDays, o.Days)
	}
	return nil
}

// Point is the net quantity change for one calendar day.
type Point struct {
	Date string `json:"date"`
	Net  int64  `json:"net"`
}

// Series accumulates deltas into a fixed window of day buckets.
type Series struct {
	loc    *time.Location
	from   time.Time
	to     time.Time
	index  map[string]int
	points []Point
}

// NewSeries creates an empty series for the days-long window ending on
// now's calendar day in loc. days must be at least 1.
func NewSeries(now time.Time, days int, loc *time.Location) *Series {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(days - 1))

	s := &Series{
		loc:    loc,
		from:   start,
		to:     today.AddDate(0, 0, 1).Add(-time.Millisecond),
		index:  make(map[string]int, days),
		points: make([]Point, 0, days),
	}
	// AddDate keeps DST days at their true calendar length
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		s.index[key] = len(s.points)
		s.points = append(s.points, Point{Date: key})
	}
	return s
}

// Range returns the inclusive instant bounds of the window.
func (s *Series) Range() (from, to time.Time) {
	return s.from, s.to
}

// Add credits delta to the local calendar day of at.
// Instants outside the window are ignored.
func (s *Series) Add(at time.Time, delta int64) {
	i, ok := s.index[at.In(s.loc).Format(DateLayout)]
	if !ok {
		return
	}
	s.points[i].Net += delta
}

// Points returns the series in ascending date order.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}
