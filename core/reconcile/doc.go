// Package reconcile repairs "write present, ledger missing" states.
//
// When the game write and its ledger record cannot be committed atomically, the write goes
// first and the record second. A crash or cancellation between the two leaves a game row
// carrying an applied key that the ledger does not know. Those rows are retryable, not
// lost: the reconciliation pass finds them and records the missing keys.
//
// # Architecture
//
// The pass follows a plan/apply split:
//
// 1. Source: lists the applied markers of game rows updated inside a look-back window.
//
// 2. BuildPlan: checks every marker against the ledger (one batch query when the ledger
// supports it, one lookup per key otherwise) and plans a record_ledger action for each
// missing key.
//
// 3. ApplyPlan: records the planned keys with outcome "reconciled". A Conflict means
// another writer got there first and counts as already present.
//
// # Usage Example
//
//	planner := reconcile.NewPlanner(repo, ledger.NewGormLedger(db))
//	plan, applied, err := planner.Run(ctx, time.Now().Add(-48*time.Hour), reconcile.Options{Confirmed: true})
//
// Planner shares one plan build between concurrent callers asking for the same window,
// such as the sync job's pass and an operator-triggered run.
package reconcile
