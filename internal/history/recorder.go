package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stocklite/stocklite/internal/model"
	"github.com/stocklite/stocklite/internal/retention"
	"github.com/stocklite/stocklite/internal/store"
)

// Recorder records and reads the history log.
//
// Thread-safety: all methods are safe for concurrent use. Writes are
// serialized by the store's single connection.
type Recorder struct {
	store  *store.Store
	clock  Clock
	ids    IDGenerator
	loc    *time.Location
	policy retention.Policy
	log    *slog.Logger

	kick      chan struct{} // buffered, size 1; coalesces retention requests
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithIDGenerator overrides event id generation.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Recorder) { r.ids = g }
}

// WithLocation sets the time zone used for local calendar-day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(r *Recorder) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithPolicy overrides the retention policy.
func WithPolicy(p retention.Policy) Option {
	return func(r *Recorder) { r.policy = p }
}

// WithLogger sets the logger for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Recorder over st and starts its retention worker.
// Call Close to stop the worker; Close does not close st.
func New(st *store.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  st,
		clock:  SystemClock{},
		ids:    UUIDv7Generator{},
		loc:    time.Local,
		policy: retention.DefaultPolicy(),
		log:    slog.Default(),
		kick:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.retentionLoop()
	return r
}

// Location returns the time zone used for day bucketing.
func (r *Recorder) Location() *time.Location {
	return r.loc
}

// Now returns the recorder clock's current time.
func (r *Recorder) Now() time.Time {
	return r.clock.Now()
}

// Append records one event.
//
// The event gets a fresh id and, when in.At is zero, the current time.
// Append never returns an error: invalid events and storage failures are
// logged and reported only through ok=false, so history logging cannot
// fail the inventory mutation that triggered it. On success a retention
// pass is scheduled asynchronously.
func (r *Recorder) Append(ctx context.Context, in model.NewEvent) (ev model.Event, ok bool) {
	if err := in.Validate(); err != nil {
		r.log.Warn("history append rejected",
			"item_id", in.ItemID,
			"type", string(in.Type),
			"error", err,
		)
		return model.Event{}, false
	}

	at := in.At
	if at.IsZero() {
		at = r.clock.Now()
	}
	ev = in.Build(r.ids.Generate(), at)

	if err := r.store.Insert(ctx, ev); err != nil {
		r.log.Warn("history append failed",
			"item_id", ev.ItemID,
			"type", string(ev.Type),
			"error", err,
		)
		return model.Event{}, false
	}

	r.scheduleRetention()
	return ev, true
}

// Clear removes every event. Used for an explicit "delete all history"
// action, so unlike Append its failure is returned.
func (r *Recorder) Clear(ctx context.Context) error {
	n, err := r.store.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	r.log.Info("history cleared", "events", n)
	return nil
}

// Prune runs one retention pass synchronously and returns its result.
func (r *Recorder) Prune(ctx context.Context) (retention.Result, error) {
	res, err := retention.Enforce(ctx, r.store, r.policy, r.clock.Now())
	if err != nil {
		return res, fmt.Errorf("prune history: %w", err)
	}
	return res, nil
}

// Close stops the retention worker after it finishes any pending pass.
// It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.quit)
		<-r.done
	})
	return nil
}

// scheduleRetention signals the worker without blocking.
// The buffer of 1 coalesces multiple signals.
func (r *Recorder) scheduleRetention() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// retentionLoop runs retention passes until Close.
func (r *Recorder) retentionLoop() {
	defer close(r.done)

	for {
		select {
		case <-r.kick:
			r.runRetention()

		case <-r.quit:
			// Drain a request that raced with Close
			select {
			case <-r.kick:
				r.runRetention()
			default:
			}
			return
		}
	}
}

// runRetention enforces the policy, logging instead of propagating failure.
// The next append schedules another attempt.
func (r *Recorder) runRetention() {
	res, err := retention.Enforce(context.Background(), r.store, r.policy, r.clock.Now())
	if err != nil {
		r.log.Error("history retention failed", "error", err)
		return
	}
	if res.Removed() > 0 {
		r.log.Debug("history retention pruned events",
			"expired", res.Expired,
			"overflow", res.Overflow,
			"remaining", res.Remaining,
		)
	}
}
