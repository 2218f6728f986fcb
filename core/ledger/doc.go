// Package ledger records which upstream events have already been applied.
//
// A record is keyed by (provider, externalId, sequence) and is created exactly once. Record
// is the only mutating operation besides retention pruning: when callers race on one key,
// exactly one succeeds and the rest get ErrConflict, which they must treat as "already
// applied" rather than as a reason to retry the write.
package ledger
