package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func entryAt(key string, storedAt time.Time, ttl time.Duration) Entry {
	return Entry{Key: key, Value: key, StoredAt: storedAt, ExpiresAt: storedAt.Add(ttl)}
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()

	s.Set(entryAt("games:2024-11-02", now, time.Minute))
	e, ok := s.Get("games:2024-11-02")
	require.True(t, ok)
	assert.Equal(t, "games:2024-11-02", e.Value)

	s.Delete("games:2024-11-02")
	_, ok = s.Get("games:2024-11-02")
	assert.False(t, ok)
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.Set(entryAt("games:2024-11-01", now, time.Minute))
	s.Set(entryAt("games:2024-11-02", now, time.Minute))
	s.Set(entryAt("standings:sec", now, time.Minute))

	assert.Equal(t, 2, s.DeletePrefix("games:"))
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("standings:sec")
	assert.True(t, ok)
}

func TestMemoryStore_Evict(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.Set(entryAt("a", now, time.Second))
	s.Set(entryAt("b", now, time.Hour))
	s.Set(entryAt("c", now, 0))

	assert.Equal(t, 2, s.Evict(now.Add(2*time.Second)))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%8)
			s.Set(entryAt(key, now, time.Minute))
			s.Get(key)
			s.Evict(now)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	s := NewMemoryStore()
	s.Set(entryAt("expired", time.Now().Add(-time.Hour), time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, s, 10*time.Millisecond, zap.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
