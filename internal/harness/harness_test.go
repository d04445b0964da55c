package harness

import (
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklite/stocklite/internal/model"
)

func ptr[T any](v T) *T { return &v }

func baseScenario(steps []Step, assertions ...Assertion) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Start:       "2026-10-15T10:00:00Z",
		Steps:       steps,
		Assertions:  assertions,
	}
}

func milk(delta, before, after int64) *AppendStep {
	typ := model.EventIncrement
	if delta < 0 {
		typ = model.EventDecrement
	}
	return &AppendStep{
		ItemID: "a", Type: typ, Delta: delta,
		QtyBefore: before, QtyAfter: after,
		Name: "牛乳", Category: "キッチン",
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	result, err := Run(baseScenario(
		[]Step{{Append: milk(1, 0, 1)}},
		Assertion{Type: AssertCount, Count: 1},
	))
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEvent{
		Seq:      1,
		Step:     StepAppend,
		At:       mustTime(t, "2026-10-15T10:00:00Z"),
		EventID:  "ev-00001",
		Accepted: true,
	}, result.Trace[0])

	require.Len(t, result.Events, 1)
	assert.Equal(t, "ev-00001", result.Events[0].ID)
	assert.True(t, result.Events[0].At.Equal(mustTime(t, "2026-10-15T10:00:00Z")))
	assert.Contains(t, string(result.CSV), "2026-10-15T10:00:00.000Z,a,牛乳,キッチン,increment,1,0,1\r\n")
}

func TestRun_AdvanceMovesClock(t *testing.T) {
	result, err := Run(baseScenario(
		[]Step{
			{Append: milk(1, 0, 1)},
			{Advance: "90m"},
			{Append: milk(-1, 1, 0)},
		},
		Assertion{Type: AssertEvent, ID: "ev-00002", Fields: map[string]any{
			"at":    "2026-10-15T11:30:00Z",
			"delta": -1,
		}},
	))
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 3)
	assert.Equal(t, StepAdvance, result.Trace[1].Step)
	assert.Equal(t, 2, result.Trace[1].Seq)
	assert.True(t, result.Trace[1].At.Equal(mustTime(t, "2026-10-15T11:30:00Z")))
}

func TestRun_Deterministic(t *testing.T) {
	s := baseScenario(
		[]Step{
			{Append: milk(2, 0, 2)},
			{Advance: "1h"},
			{Append: milk(-1, 2, 1)},
		},
		Assertion{Type: AssertCount, Count: 2},
	)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.CSV, second.CSV)
}

func TestRun_FreshDatabasePerRun(t *testing.T) {
	s := baseScenario(
		[]Step{{Append: milk(1, 0, 1)}},
		Assertion{Type: AssertCount, Count: 1},
	)

	for i := 0; i < 2; i++ {
		result, err := Run(s)
		require.NoError(t, err)
		assert.True(t, result.Pass, result.Errors)
	}
}

func TestRun_RejectedAppend(t *testing.T) {
	bad := milk(1, 0, 5)
	bad.Rejected = true

	result, err := Run(baseScenario(
		[]Step{{Append: bad}, {Append: milk(1, 0, 1)}},
		Assertion{Type: AssertPageIDs, IDs: []string{"ev-00001"}},
	))
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.False(t, result.Trace[0].Accepted)
	assert.Empty(t, result.Trace[0].EventID)
}

func TestRun_UnexpectedRejectionFails(t *testing.T) {
	result, err := Run(baseScenario(
		[]Step{{Append: milk(1, 0, 5)}},
		Assertion{Type: AssertCount, Count: 0},
	))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0]: append accepted=false, expected true")
}

func TestRun_ReconcileExpectation(t *testing.T) {
	result, err := Run(baseScenario(
		[]Step{
			{Append: milk(1, 0, 1)},
			{Reconcile: &ReconcileStep{OldID: "a", NewID: "b", Expect: ptr(int64(2))}},
		},
		Assertion{Type: AssertPageIDs, ItemID: ptr("b"), IDs: []string{"ev-00001"}},
	))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "reconcile moved 1 events, expected 2")
	assert.EqualValues(t, 1, result.Trace[1].Affected)
}

func TestRun_FillNames(t *testing.T) {
	unnamed := milk(1, 0, 1)
	unnamed.Name = ""

	result, err := Run(baseScenario(
		[]Step{
			{Append: unnamed},
			{FillNames: map[string]string{"a": "牛乳", "z": "unused"}},
		},
		Assertion{Type: AssertEvent, ID: "ev-00001", Fields: map[string]any{"name": "牛乳"}},
	))
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.EqualValues(t, 1, result.Trace[1].Affected)
}

func TestRun_Clear(t *testing.T) {
	result, err := Run(baseScenario(
		[]Step{
			{Append: milk(1, 0, 1)},
			{Append: milk(1, 1, 2)},
			{Clear: true},
			{Append: milk(1, 2, 3)},
		},
		Assertion{Type: AssertPageIDs, IDs: []string{"ev-00003"}},
	))
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, StepClear, result.Trace[2].Step)
}

func TestRun_PruneByCount(t *testing.T) {
	s := baseScenario(
		[]Step{
			{Append: milk(1, 0, 1)},
			{Append: milk(1, 1, 2)},
			{Append: milk(1, 2, 3)},
			{Prune: true},
		},
		Assertion{Type: AssertPageIDs, IDs: []string{"ev-00003", "ev-00002"}},
	)
	s.Policy = &PolicySpec{MaxAgeDays: 365, MaxEvents: 2}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_FailedAssertionsReported(t *testing.T) {
	result, err := Run(baseScenario(
		[]Step{{Append: milk(1, 0, 1)}},
		Assertion{Type: AssertCount, Count: 3},
		Assertion{Type: AssertPageIDs, IDs: []string{"ev-00009"}},
		Assertion{Type: AssertDailyNet, Days: 1, Expect: map[string]int64{"2026-10-15": 5, "2026-09-01": 1}},
		Assertion{Type: AssertEvent, ID: "ev-00009"},
		Assertion{Type: AssertEvent, ID: "ev-00001", Fields: map[string]any{"delta": 2}},
		Assertion{Type: AssertEvent, ID: "ev-00001", Fields: map[string]any{"colour": "red"}},
	))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "Expected: 3 events")
	assert.Contains(t, result.Errors[1], "[ev-00009]")
	assert.Contains(t, result.Errors[2], "2026-10-15: got 1, want 5")
	assert.Contains(t, result.Errors[2], "2026-09-01: outside the 1-day window")
	assert.Contains(t, result.Errors[3], "not found")
	assert.Contains(t, result.Errors[4], "ev-00001.delta = 2")
	assert.Contains(t, result.Errors[5], "field missing")
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(baseScenario(nil, Assertion{Type: AssertCount}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps list is required")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{Type: AssertCount, Expected: "2 events", Actual: "1 events [ev-00001]"}
	assert.Equal(t,
		"Assertion failed: count\n  Expected: 2 events\n  Actual: 1 events [ev-00001]",
		err.Error())
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(float64(-2), -2))
	assert.True(t, valuesEqual("a", "a"))
	assert.True(t, valuesEqual(true, true))
	assert.False(t, valuesEqual(float64(2), 3))
	assert.False(t, valuesEqual("2", "a"))
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
