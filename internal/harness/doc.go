// Package harness runs scripted history scenarios against a fresh store.
//
// A scenario pins a start time and time zone, applies a sequence of steps
// (appends, clock moves, reconciliation, retention, clearing) through a
// history.Recorder, then checks assertions against the resulting log.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: restock_cycle
//	description: "What this scenario validates"
//	start: 2026-10-15T10:00:00+09:00
//	timezone: Asia/Tokyo
//	policy: { max_age_days: 365, max_events: 5000 }
//	steps:
//	  - append: { item_id: a, type: create, qty_after: 2, name: 牛乳 }
//	  - advance: 2h
//	  - append: { item_id: a, type: decrement, delta: -1, qty_before: 2, qty_after: 1 }
//	  - reconcile: { old_id: "", new_id: b, name: 卵 }
//	  - fill_names: { b: 卵 }
//	  - prune: true
//	  - clear: true
//	assertions:
//	  - type: count
//	    count: 2
//	  - type: page_ids
//	    item_id: a
//	    limit: 1
//	    ids: [ev-00002, ev-00001]
//	  - type: daily_net
//	    item_id: a
//	    days: 2
//	    expect: { "2026-10-15": -1 }
//
// # Assertion Types
//
//   - count: total number of stored events
//   - page_ids: ids seen by paging QueryAll or QueryByItem to exhaustion
//   - daily_net: per-day net change from DailyNetByItem or DailyNet
//   - event: field values of one stored event
//
// # Deterministic Testing
//
// Every run uses a testutil.ManualClock starting at the scenario's start
// time and testutil.SequentialIDs, so event ids are ev-00001, ev-00002 and
// so on in append order. Retention runs asynchronously inside the recorder;
// the harness quiesces the worker before a prune step and before
// assertions, so results do not depend on scheduling.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/restock.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
