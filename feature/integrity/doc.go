// Package integrity runs health checks over the pipeline's persistent state.
//
// # Checks Provided
//
//   - Schema: every column of the games, sync_runs and idempotency_records models exists in the database.
//   - Archive: the snapshot bucket exists and its keys follow snapshots/<provider>/<date>/<run id>.json.
//   - Ledger: recent game writes all have an idempotency record (reconciliation dry-run).
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/archive : Runs the archive check.
//   - GET /integrity/ledger : Runs the ledger check (supports ?hours=N).
package integrity
