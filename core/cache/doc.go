// Package cache provides the read-side cache coordinator.
//
// The coordinator implements cache-aside reads over a Store with per-key single-flight
// hydration: when many requests for the same cold key arrive together, exactly one loader
// call runs and every caller observes its outcome.
//
// # Components
//
// 1. Store: key/value storage with per-entry expiry. MemoryStore shards keys across
// independently locked maps.
//
// 2. Coordinator: GetOrHydrate serves live entries and otherwise attaches the caller to the
// key's in-flight hydration, starting one if there is none.
//
// 3. Keys: Key and KeyFromParams derive deterministic keys such as "games:2024-11-02" or
// "standings:sec".
//
// # Semantics
//
//   - An entry is live while now <= expiresAt. ttl=0 means always revalidate.
//   - Failed hydrations are never cached; all waiters receive the same *LoaderError.
//   - Hydration runs detached from the caller that started it and is bounded by the
//     hydrate timeout. A caller whose context ends returns early; the others keep waiting.
//   - Invalidate only removes. The next read repopulates.
//
// # Usage Example
//
//	coord := cache.NewCoordinator(cache.NewMemoryStore(), 5*time.Second, logger)
//	rows, err := cache.Get(ctx, coord, cache.Key("standings", "sec"), 5*time.Minute,
//	    func(ctx context.Context) ([]store.StandingRow, error) {
//	        return repo.Standings(ctx, "sec")
//	    })
package cache
