package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		ev      NewEvent
		wantErr bool
	}{
		{"increment consistent", NewEvent{Type: EventIncrement, Delta: 1, QtyBefore: 2, QtyAfter: 3}, false},
		{"decrement consistent", NewEvent{Type: EventDecrement, Delta: -1, QtyBefore: 1, QtyAfter: 0}, false},
		{"edit consistent", NewEvent{Type: EventEdit, Delta: 4, QtyBefore: 1, QtyAfter: 5}, false},
		{"edit metadata only", NewEvent{Type: EventEdit, Delta: 0, QtyBefore: 5, QtyAfter: 5}, false},
		{"create with zero delta", NewEvent{Type: EventCreate, QtyBefore: 0, QtyAfter: 3}, false},
		{"delete with zero delta", NewEvent{Type: EventDelete, QtyBefore: 3, QtyAfter: 0}, false},
		{"unknown type", NewEvent{Type: "refill"}, true},
		{"negative quantity", NewEvent{Type: EventDecrement, Delta: -1, QtyBefore: 0, QtyAfter: -1}, true},
		{"edit delta mismatch", NewEvent{Type: EventEdit, Delta: 0, QtyBefore: 1, QtyAfter: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuild_TruncatesToMillisUTC(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	at := time.Date(2026, 3, 1, 9, 30, 0, 123456789, loc)

	ev := NewEvent{ItemID: "i1", Type: EventCreate}.Build("id-1", at)

	assert.Equal(t, "id-1", ev.ID)
	assert.Equal(t, time.UTC, ev.At.Location())
	assert.Equal(t, at.UnixMilli(), ev.At.UnixMilli())
	assert.Equal(t, 123000000, ev.At.Nanosecond())
}

func TestAffectsQuantity(t *testing.T) {
	for _, typ := range QuantityTypes {
		assert.True(t, typ.AffectsQuantity(), typ)
	}
	for _, typ := range []EventType{EventCreate, EventDelete, EventRestore} {
		assert.False(t, typ.AffectsQuantity(), typ)
	}
}

func TestEditChanges(t *testing.T) {
	before := Item{ID: "a", Name: "スポンジ", Category: "キッチン", Threshold: 1}

	assert.Nil(t, EditChanges(before, before))

	after := before
	after.Name = "スポンジ(大)"
	after.Threshold = 2
	changes := EditChanges(before, after)
	require.Len(t, changes, 2)
	assert.Equal(t, FieldChange{Before: "スポンジ", After: "スポンジ(大)"}, changes[FieldName])
	assert.Equal(t, FieldChange{Before: int64(1), After: int64(2)}, changes[FieldThreshold])
}

func TestMarshalMeta_Canonical(t *testing.T) {
	m := &Meta{
		Origin: "edit-form",
		Changes: map[string]FieldChange{
			FieldThreshold: {Before: int64(1), After: int64(3)},
			FieldName:      {Before: "a<b", After: "c&d"},
		},
	}

	got, err := MarshalMeta(m)
	require.NoError(t, err)
	assert.Equal(t,
		`{"changes":{"name":{"after":"c&d","before":"a<b"},"threshold":{"after":3,"before":1}},"origin":"edit-form"}`,
		got)

	again, err := MarshalMeta(m)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestMarshalMeta_NFC(t *testing.T) {
	// decomposed ka + combining dakuten must be stored composed
	decomposed := "\u304b\u3099"
	got, err := MarshalMeta(&Meta{Origin: decomposed})
	require.NoError(t, err)
	assert.Equal(t, "{\"origin\":\"\u304c\"}", got)
}

func TestMarshalMeta_Empty(t *testing.T) {
	got, err := MarshalMeta(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = MarshalMeta(&Meta{})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestMarshalMeta_RejectsUnsupportedValue(t *testing.T) {
	_, err := MarshalMeta(&Meta{Changes: map[string]FieldChange{
		FieldThreshold: {Before: 1.5, After: 2.5},
	}})
	assert.Error(t, err)
}

func TestUnmarshalMeta_RoundTrip(t *testing.T) {
	m := &Meta{
		Origin: "import",
		Changes: map[string]FieldChange{
			FieldCategory:  {Before: "キッチン", After: "洗面・トイレ"},
			FieldThreshold: {Before: int64(0), After: int64(999)},
		},
	}
	data, err := MarshalMeta(m)
	require.NoError(t, err)

	got, err := UnmarshalMeta(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestUnmarshalMeta_EmptyAndInvalid(t *testing.T) {
	got, err := UnmarshalMeta("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = UnmarshalMeta("{not json")
	assert.Error(t, err)

	_, err = UnmarshalMeta(`{"changes":{"threshold":{"before":1.5,"after":2}}}`)
	assert.Error(t, err)
}
