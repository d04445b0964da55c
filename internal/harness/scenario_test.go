package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: minimal
description: "One append"
start: "2026-10-15T10:00:00Z"
steps:
  - append: { item_id: a, type: create, qty_after: 1, name: 卵 }
assertions:
  - type: count
    count: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "2026-10-15T10:00:00Z", s.Start)
	require.Len(t, s.Steps, 1)
	require.NotNil(t, s.Steps[0].Append)
	assert.Equal(t, "a", s.Steps[0].Append.ItemID)
	assert.EqualValues(t, 1, s.Steps[0].Append.QtyAfter)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertCount, s.Assertions[0].Type)
	assert.Nil(t, s.Assertions[0].ItemID)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, minimalScenario+"assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true}]\nassertions: [{type: count}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true}]\nassertions: [{type: count}]\n",
			wantErr: "description is required",
		},
		{
			name:    "bad start",
			content: "name: n\ndescription: d\nstart: yesterday\nsteps: [{prune: true}]\nassertions: [{type: count}]\n",
			wantErr: "start must be an RFC 3339 time",
		},
		{
			name:    "bad timezone",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\ntimezone: Mars/Olympus\nsteps: [{prune: true}]\nassertions: [{type: count}]\n",
			wantErr: "timezone",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nassertions: [{type: count}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "two actions in one step",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true, clear: true}]\nassertions: [{type: count}]\n",
			wantErr: "steps[0]: exactly one action is required, got 2",
		},
		{
			name:    "empty step",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{}]\nassertions: [{type: count}]\n",
			wantErr: "steps[0]: exactly one action is required, got 0",
		},
		{
			name:    "bad duration",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{advance: 1d}]\nassertions: [{type: count}]\n",
			wantErr: "steps[0]: advance",
		},
		{
			name:    "negative duration",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{advance: -1h}]\nassertions: [{type: count}]\n",
			wantErr: "advance must not be negative",
		},
		{
			name:    "reconcile without new id",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{reconcile: {old_id: a}}]\nassertions: [{type: count}]\n",
			wantErr: "reconcile.new_id is required",
		},
		{
			name:    "non-positive policy",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\npolicy: {max_age_days: 0, max_events: 5}\nsteps: [{prune: true}]\nassertions: [{type: count}]\n",
			wantErr: "policy limits must be positive",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true}]\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "daily net without days",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true}]\nassertions: [{type: daily_net}]\n",
			wantErr: "days must be at least 1",
		},
		{
			name:    "event without id",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true}]\nassertions: [{type: event}]\n",
			wantErr: "id is required for event",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\nstart: \"2026-10-15T10:00:00Z\"\nsteps: [{prune: true}]\nassertions: [{type: count, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ExplicitBlankItemID(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, `
name: blank
description: "Legacy rows"
start: "2026-10-15T10:00:00Z"
steps:
  - clear: true
assertions:
  - type: page_ids
    item_id: ""
    ids: []
`))
	require.NoError(t, err)
	require.NotNil(t, s.Assertions[0].ItemID)
	assert.Equal(t, "", *s.Assertions[0].ItemID)
}

func TestLoadExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}
