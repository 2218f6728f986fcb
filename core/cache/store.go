package cache

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is a key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for key. Expired entries may still be returned; callers check Live.
	Get(key string) (Entry, bool)
	// Set stores or replaces the entry for e.Key.
	Set(e Entry)
	// Delete removes key.
	Delete(key string)
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(prefix string) int
	// Evict removes entries that are no longer live at now and returns how many were removed.
	Evict(now time.Time) int
	// Len returns the number of entries held, including expired ones not yet evicted.
	Len() int
}

const shardCount = 32

type shard struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// MemoryStore is a sharded in-memory Store. Each shard has its own lock, so unrelated keys
// rarely contend.
type MemoryStore struct {
	shards [shardCount]*shard
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]Entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.data[key]
	return e, ok
}

// Set implements Store.
func (s *MemoryStore) Set(e Entry) {
	sh := s.shardFor(e.Key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.data[e.Key] = e
}

// Delete implements Store.
func (s *MemoryStore) Delete(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.data, key)
}

// DeletePrefix implements Store.
func (s *MemoryStore) DeletePrefix(prefix string) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k := range sh.data {
			if strings.HasPrefix(k, prefix) {
				delete(sh.data, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Evict implements Store.
func (s *MemoryStore) Evict(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.data {
			if !e.Live(now) {
				delete(sh.data, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len implements Store.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.data)
		sh.mu.RUnlock()
	}
	return n
}

// RunSweeper evicts expired entries every interval until ctx is cancelled.
// Eviction only reclaims memory; expired entries are never served either way.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := store.Evict(now); n > 0 {
				logger.Debug("Evicted expired cache entries", zap.Int("count", n))
			}
		}
	}
}
