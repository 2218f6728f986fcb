package cache

import "time"

// Entry is a cached value with its expiry.
type Entry struct {
	Key       string
	Value     any
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Live reports whether the entry may be served at now.
// An entry is live while now <= ExpiresAt. Entries stored with a zero TTL are never live,
// which makes ttl=0 mean "always revalidate".
func (e Entry) Live(now time.Time) bool {
	if !e.ExpiresAt.After(e.StoredAt) {
		return false
	}
	return !now.After(e.ExpiresAt)
}
