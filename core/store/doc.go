// Package store is the persisted game store written by the sync job and read by the APIs.
//
// Every game row remembers the idempotency key of the event last applied to it
// (last_provider, last_external_id, last_sequence). UpsertGame uses those markers to keep
// a stream from regressing to an older sequence, and the reconciliation pass uses them to
// find writes whose ledger record is missing.
//
// Writes are optimistic: an update only lands if the markers it was decided against are
// still on the row, and is re-evaluated otherwise.
package store
