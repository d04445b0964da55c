// Package store provides SQLite-backed durable storage for the inventory
// history log.
//
// The store is an append-only log of model.Event rows in one table,
// history_events, keyed by id with two indexes:
//   - (item_id, at_ms, id): per-item range scans and pagination
//   - (at_ms, id): global range scans, retention and export
//
// # Critical Patterns
//
// Append is a single INSERT keyed by a fresh id. There is no
// read-modify-write on the append path, so concurrent writers (several
// processes sharing one file) interleave without corrupting the log.
//
// Total order is (at_ms, id COLLATE BINARY). Every ordered query uses it,
// in both directions, so pagination and oldest-first eviction agree.
//
// Rows are only ever inserted or deleted, with one exception: Reassign and
// FillNames rewrite item_id/name for identity reconciliation.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Schema managed by golang-migrate from embedded SQL files
package store
