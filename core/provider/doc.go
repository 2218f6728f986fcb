// Package provider fetches live game snapshots from upstream data providers.
//
// A Client returns a Snapshot of the games inside a Window. The snapshot reports its age
// as time since the provider's own last update, which is the staleness signal used by
// Select to fall back from the Primary to the Secondary provider.
//
// HTTPClient retries network errors, 429 and 5xx responses with exponential backoff and
// honours Retry-After. Other 4xx responses fail immediately.
package provider
