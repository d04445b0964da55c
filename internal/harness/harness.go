package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stocklite/stocklite/internal/export"
	"github.com/stocklite/stocklite/internal/history"
	"github.com/stocklite/stocklite/internal/model"
	"github.com/stocklite/stocklite/internal/retention"
	"github.com/stocklite/stocklite/internal/store"
	"github.com/stocklite/stocklite/internal/testutil"
)

// Harness is the scenario execution engine.
// It drives a history.Recorder with a manual clock and sequential ids.
type Harness struct {
	store  *store.Store
	rec    *history.Recorder
	clock  *testutil.ManualClock
	ids    *testutil.SequentialIDs
	loc    *time.Location
	policy retention.Policy
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Create fresh in-memory database and recorder
// 2. Apply steps in order, recording a trace entry per step
// 3. Quiesce retention and evaluate assertions
// 4. Capture the final log and its CSV export
//
// A returned error means the scenario could not run; assertion failures
// are reported through Result.Pass and Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(st, scenario)
	if err != nil {
		return nil, err
	}
	defer func() { h.rec.Close() }()

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	h.quiesce()
	for _, errMsg := range EvaluateAssertions(ctx, h.rec, scenario.Assertions) {
		result.AddError(errMsg)
	}

	if err := st.Scan(ctx, store.ScanQuery{}, func(ev model.Event) error {
		result.Events = append(result.Events, ev)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to read final log: %w", err)
	}

	csv, err := export.New(st, h.clock).Bytes(ctx, export.Range{})
	if err != nil {
		return nil, fmt.Errorf("failed to export final log: %w", err)
	}
	result.CSV = csv

	return result, nil
}

func newHarness(st *store.Store, s *Scenario) (*Harness, error) {
	start, err := time.Parse(time.RFC3339Nano, s.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	loc := time.UTC
	if s.Timezone != "" {
		if loc, err = time.LoadLocation(s.Timezone); err != nil {
			return nil, fmt.Errorf("timezone: %w", err)
		}
	}

	policy := retention.DefaultPolicy()
	if s.Policy != nil {
		policy = retention.Policy{
			MaxAge:    time.Duration(s.Policy.MaxAgeDays) * 24 * time.Hour,
			MaxEvents: s.Policy.MaxEvents,
		}
	}

	h := &Harness{
		store:  st,
		clock:  testutil.NewManualClock(start),
		ids:    testutil.NewSequentialIDs("ev"),
		loc:    loc,
		policy: policy,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	h.rec = h.newRecorder()
	return h, nil
}

func (h *Harness) newRecorder() *history.Recorder {
	return history.New(h.store,
		history.WithClock(h.clock),
		history.WithIDGenerator(h.ids),
		history.WithLocation(h.loc),
		history.WithPolicy(h.policy),
		history.WithLogger(h.logger),
	)
}

// quiesce waits for any scheduled retention pass and swaps in a fresh
// recorder with an idle worker, so the next read or prune sees a settled log.
func (h *Harness) quiesce() {
	h.rec.Close()
	h.rec = h.newRecorder()
}

// executeStep applies one step and appends its trace entry.
// Unmet step expectations are recorded as result errors.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	switch {
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		h.clock.Advance(d)
		result.AddTrace(TraceEvent{Step: StepAdvance, At: h.clock.Now()})

	case step.Append != nil:
		in, err := step.Append.newEvent()
		if err != nil {
			return err
		}
		ev, ok := h.rec.Append(ctx, in)
		result.AddTrace(TraceEvent{Step: StepAppend, At: h.clock.Now(), EventID: ev.ID, Accepted: ok})
		if ok == step.Append.Rejected {
			result.AddError(fmt.Sprintf("steps[%d]: append accepted=%t, expected %t", index, ok, !step.Append.Rejected))
		}

	case step.Reconcile != nil:
		r := step.Reconcile
		n := h.rec.Reconcile(ctx, r.OldID, r.NewID, r.Name)
		result.AddTrace(TraceEvent{Step: StepReconcile, At: h.clock.Now(), Affected: n})
		if r.Expect != nil && *r.Expect != n {
			result.AddError(fmt.Sprintf("steps[%d]: reconcile moved %d events, expected %d", index, n, *r.Expect))
		}

	case step.FillNames != nil:
		items := make([]model.Item, 0, len(step.FillNames))
		for id, name := range step.FillNames {
			items = append(items, model.Item{ID: id, Name: name})
		}
		n := h.rec.FillMissingNames(ctx, items)
		result.AddTrace(TraceEvent{Step: StepFillNames, At: h.clock.Now(), Affected: n})

	case step.Prune:
		h.quiesce()
		res, err := h.rec.Prune(ctx)
		if err != nil {
			return err
		}
		result.AddTrace(TraceEvent{Step: StepPrune, At: h.clock.Now(), Affected: res.Removed()})

	case step.Clear:
		h.quiesce()
		if err := h.rec.Clear(ctx); err != nil {
			return err
		}
		result.AddTrace(TraceEvent{Step: StepClear, At: h.clock.Now()})

	default:
		return fmt.Errorf("empty step")
	}

	return nil
}

// newEvent converts the step into a recorder input.
func (a *AppendStep) newEvent() (model.NewEvent, error) {
	in := model.NewEvent{
		ItemID:    a.ItemID,
		Type:      a.Type,
		Delta:     a.Delta,
		QtyBefore: a.QtyBefore,
		QtyAfter:  a.QtyAfter,
		Name:      a.Name,
		Category:  a.Category,
	}
	if a.At != "" {
		at, err := time.Parse(time.RFC3339Nano, a.At)
		if err != nil {
			return model.NewEvent{}, fmt.Errorf("append.at: %w", err)
		}
		in.At = at
	}
	return in, nil
}
