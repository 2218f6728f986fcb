// Package models defines the canonical types shared by the ingestion pipeline.
//
// Provider payloads are normalized into GameEvent values. Each event carries an
// IdempotencyKey (provider, external id, sequence) which the ledger uses to make
// sure an effect is applied at most once, no matter how often the provider
// replays it.
package models
