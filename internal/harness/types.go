package harness

import (
	"time"

	"github.com/stocklite/stocklite/internal/model"
)

// Step kinds recorded in the trace.
const (
	StepAdvance   = "advance"
	StepAppend    = "append"
	StepReconcile = "reconcile"
	StepFillNames = "fill_names"
	StepPrune     = "prune"
	StepClear     = "clear"
)

// TraceEvent records what one step did.
type TraceEvent struct {
	Seq  int       `json:"seq"`
	Step string    `json:"step"`
	At   time.Time `json:"at"` // clock reading when the step ran

	// EventID is the id assigned by an accepted append.
	EventID string `json:"event_id,omitempty"`

	// Accepted reports whether an append was stored.
	Accepted bool `json:"accepted,omitempty"`

	// Affected counts rows moved, named or removed.
	Affected int64 `json:"affected,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one entry per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Events is the final log in ascending (at, id) order.
	Events []model.Event `json:"events"`

	// CSV is the export of the final log over the default window.
	CSV []byte `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Events: []model.Event{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step record, numbering it from 1.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
