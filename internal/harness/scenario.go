package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stocklite/stocklite/internal/model"
)

// Scenario defines a scripted history scenario.
// Steps run in order against a fresh store; assertions check the final log.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the initial clock reading, RFC 3339.
	Start string `yaml:"start"`

	// Timezone is the IANA zone used for day bucketing. Empty means UTC.
	Timezone string `yaml:"timezone,omitempty"`

	// Policy overrides the default retention limits.
	Policy *PolicySpec `yaml:"policy,omitempty"`

	// Steps are applied in order. Each step sets exactly one field.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final log.
	Assertions []Assertion `yaml:"assertions"`
}

// PolicySpec mirrors retention.Policy in scenario-friendly units.
type PolicySpec struct {
	MaxAgeDays int   `yaml:"max_age_days"`
	MaxEvents  int64 `yaml:"max_events"`
}

// Step is one scenario action.
type Step struct {
	// Advance moves the clock forward by a Go duration such as "90m".
	Advance string `yaml:"advance,omitempty"`

	// Append records one event through the recorder.
	Append *AppendStep `yaml:"append,omitempty"`

	// Reconcile moves events from old_id to new_id.
	Reconcile *ReconcileStep `yaml:"reconcile,omitempty"`

	// FillNames maps item ids to names for events with a blank name.
	FillNames map[string]string `yaml:"fill_names,omitempty"`

	// Prune runs one retention pass synchronously.
	Prune bool `yaml:"prune,omitempty"`

	// Clear deletes every event.
	Clear bool `yaml:"clear,omitempty"`
}

// AppendStep describes an event to append.
type AppendStep struct {
	ItemID    string          `yaml:"item_id"`
	Type      model.EventType `yaml:"type"`
	Delta     int64           `yaml:"delta"`
	QtyBefore int64           `yaml:"qty_before"`
	QtyAfter  int64           `yaml:"qty_after"`
	Name      string          `yaml:"name"`
	Category  string          `yaml:"category"`

	// At is an explicit RFC 3339 timestamp. Empty means the clock's reading.
	At string `yaml:"at,omitempty"`

	// Rejected expects the recorder to refuse the event.
	Rejected bool `yaml:"rejected,omitempty"`
}

// ReconcileStep describes an identity migration.
type ReconcileStep struct {
	OldID string `yaml:"old_id"`
	NewID string `yaml:"new_id"`
	Name  string `yaml:"name"`

	// Expect is the number of events the step must move, when set.
	Expect *int64 `yaml:"expect,omitempty"`
}

// Assertion validates the final log.
type Assertion struct {
	// Type specifies the assertion type:
	// - "count": total stored events equal Count
	// - "page_ids": paging to exhaustion yields IDs in order
	// - "daily_net": daily series matches Expect; unlisted days are zero
	// - "event": the event with ID has the given Fields
	Type string `yaml:"type"`

	// Count is the expected number of events (used by count).
	Count int64 `yaml:"count,omitempty"`

	// ItemID restricts page_ids and daily_net to one item. Omit for all items.
	ItemID *string `yaml:"item_id,omitempty"`

	// Limit is the page size for page_ids. Zero uses the default.
	Limit int `yaml:"limit,omitempty"`

	// IDs is the expected descending id sequence (used by page_ids).
	IDs []string `yaml:"ids,omitempty"`

	// Days is the series length (used by daily_net).
	Days int `yaml:"days,omitempty"`

	// Expect maps YYYY-MM-DD to net change (used by daily_net).
	Expect map[string]int64 `yaml:"expect,omitempty"`

	// ID selects the event (used by event).
	ID string `yaml:"id,omitempty"`

	// Fields are expected event values keyed by JSON field name (used by event).
	// Subset match: unlisted fields are not checked.
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Assertion type constants.
const (
	AssertCount    = "count"
	AssertPageIDs  = "page_ids"
	AssertDailyNet = "daily_net"
	AssertEvent    = "event"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := time.Parse(time.RFC3339Nano, s.Start); err != nil {
		return fmt.Errorf("start must be an RFC 3339 time: %w", err)
	}

	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}

	if s.Policy != nil && (s.Policy.MaxAgeDays < 1 || s.Policy.MaxEvents < 1) {
		return fmt.Errorf("policy limits must be positive")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that exactly one action is set and that it parses.
func validateStep(index int, st *Step) error {
	set := 0
	if st.Advance != "" {
		set++
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: advance must not be negative", index)
		}
	}
	if st.Append != nil {
		set++
		if st.Append.At != "" {
			if _, err := time.Parse(time.RFC3339Nano, st.Append.At); err != nil {
				return fmt.Errorf("steps[%d]: append.at: %w", index, err)
			}
		}
	}
	if st.Reconcile != nil {
		set++
		if st.Reconcile.NewID == "" {
			return fmt.Errorf("steps[%d]: reconcile.new_id is required", index)
		}
	}
	if st.FillNames != nil {
		set++
	}
	if st.Prune {
		set++
	}
	if st.Clear {
		set++
	}

	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", index, set)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertPageIDs:
		if a.Limit < 0 {
			return fmt.Errorf("assertions[%d]: limit must be non-negative", index)
		}
	case AssertDailyNet:
		if a.Days < 1 {
			return fmt.Errorf("assertions[%d]: days must be at least 1 for daily_net", index)
		}
	case AssertEvent:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for event", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
