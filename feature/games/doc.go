// Package games serves the hot read queries through the single-flight cache.
//
// Every query derives a deterministic cache key and a per-query TTL and calls
// cache.Get with a loader over the persisted store. Concurrent cold requests for the
// same key share one store read. The sync job invalidates the games:, standings: and
// conferences keys after it applies writes.
//
// # HTTP Endpoints
//
//   - GET /games/today : today's games (reference time zone).
//   - GET /games/date/:date : games of one day (YYYY-MM-DD).
//   - GET /standings/:conference : conference table from final games.
//   - GET /conferences : conferences with at least one game.
package games
