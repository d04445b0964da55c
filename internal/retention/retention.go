// Package retention bounds the history log by age and by size.
//
// Enforcement runs two passes, in order:
//  1. delete every event strictly older than now - MaxAge
//  2. if more than MaxEvents remain, delete the oldest surplus by (at, id)
//
// Both passes only delete. Existing rows are never rewritten, and new appends
// always sort after the age cutoff, so a pass can interleave with concurrent
// appends and reads.
package retention

import (
	"context"
	"fmt"
	"time"
)

// Defaults for the history log.
const (
	DefaultMaxAge    = 365 * 24 * time.Hour
	DefaultMaxEvents = 5000
)

// Policy holds the retention bounds. A zero field disables that bound.
type Policy struct {
	MaxAge    time.Duration
	MaxEvents int64
}

// DefaultPolicy returns the standard 365-day / 5000-event policy.
func DefaultPolicy() Policy {
	return Policy{MaxAge: DefaultMaxAge, MaxEvents: DefaultMaxEvents}
}

// Pruner is the storage surface retention needs.
// *store.Store satisfies it.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	DeleteOldest(ctx context.Context, n int64) (int64, error)
}

// Result reports what one enforcement run removed.
type Result struct {
	Cutoff    time.Time `json:"cutoff,omitzero"`
	Expired   int64     `json:"expired"`  // removed by the age pass
	Overflow  int64     `json:"overflow"` // removed by the count pass
	Remaining int64     `json:"remaining"`
}

// Removed returns the total number of events deleted.
func (r Result) Removed() int64 {
	return r.Expired + r.Overflow
}

// Enforce applies p to the log as of now.
// A failed pass returns an error together with what earlier passes removed.
func Enforce(ctx context.Context, st Pruner, p Policy, now time.Time) (Result, error) {
	var res Result

	if p.MaxAge > 0 {
		res.Cutoff = now.Add(-p.MaxAge)
		n, err := st.DeleteBefore(ctx, res.Cutoff)
		if err != nil {
			return res, fmt.Errorf("age pass: %w", err)
		}
		res.Expired = n
	}

	count, err := st.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count pass: %w", err)
	}
	res.Remaining = count

	if p.MaxEvents > 0 && count > p.MaxEvents {
		n, err := st.DeleteOldest(ctx, count-p.MaxEvents)
		if err != nil {
			return res, fmt.Errorf("count pass: %w", err)
		}
		res.Overflow = n
		res.Remaining = count - n
	}

	return res, nil
}
