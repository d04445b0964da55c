// Package history is the entry point for recording and reading inventory
// history.
//
// A Recorder wraps the SQLite event store and adds the behavior callers
// rely on:
//   - Append is best-effort. It assigns a fresh id and timestamp, stores the
//     event, and never reports failure to the inventory action that
//     triggered it; failures are logged.
//   - After every successful append a retention pass is scheduled on a
//     background goroutine. Signals coalesce, so a burst of appends costs
//     one pass, and a failed pass is retried on the next append.
//   - Queries return descending, cursor-paginated pages. Storage errors
//     propagate and partial pages are discarded.
//   - Daily aggregation buckets quantity deltas by local calendar day.
//   - Reconcile rewrites item references after an identifier change and,
//     like Append, never fails the caller.
package history
