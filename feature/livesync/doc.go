// Package livesync is the scheduled ingestion job.
//
// A Coordinator run moves through Idle -> Fetching -> Normalizing -> Writing -> Idle,
// with Failed reachable from any phase and always returning to Idle:
//
//  1. Fetching asks the primary provider for today's window (reference time zone) and
//     falls back to the secondary when the primary fails or its data is older than the
//     staleness threshold. When both fail the run ends Failed and nothing is written.
//  2. Normalizing converts the chosen snapshot into events sorted by
//     (externalId, sequence). Records that fail to normalize are reported, not fatal.
//  3. Writing first runs the reconciliation pass, then applies each event whose
//     idempotency key the ledger lacks. Streams are written in parallel; one stream is
//     written in sequence order. A ledger conflict counts as a suppressed duplicate.
//
// Only one run is active at a time. A trigger arriving during a run is dropped, counted
// and logged (ErrRunOverlap). A run exceeding sync.max_run_seconds is cancelled; writes
// it interrupted are reported as maybe-applied and resolved by the next run.
//
// # HTTP Endpoints
//
//   - GET /sync/status : state, dropped triggers, last report, recent runs.
//   - POST /sync/trigger : run now (409 when a run is active).
//   - POST /sync/reconcile : reconciliation pass (supports ?dry_run=true and ?hours=N).
package livesync
