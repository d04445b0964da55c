// Package model defines the history event and item types shared by every
// stocklite package.
//
// This package contains type definitions and their serialization only. All
// other internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - Events are immutable once appended. The only sanctioned rewrite is
//     identity reconciliation of ItemID/Name (see package history).
//   - Quantities and deltas are int64; there are no float fields.
//   - Timestamps carry millisecond precision, matching what the store persists.
//   - Ordering is (At, ID); ID is a time-ordered UUID so ties on At resolve
//     in creation order.
package model
