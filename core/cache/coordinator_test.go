package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sports-pipeline/core/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingSink counts events by name.
type countingSink struct {
	mu     sync.Mutex
	counts map[string]int
}

func (s *countingSink) Emit(ev metrics.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[ev.Name]++
}

func (s *countingSink) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[name]
}

func newTestCoordinator(opts ...Option) (*Coordinator, *MemoryStore) {
	st := NewMemoryStore()
	return NewCoordinator(st, time.Second, zap.NewNop(), opts...), st
}

type standingRow struct {
	Team string
	Wins int
}

func TestCoordinator_SingleFlightUnderLoad(t *testing.T) {
	coord, st := newTestCoordinator()
	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
		return []standingRow{{Team: "georgia", Wins: 8}}, nil
	}

	const callers = 50
	start := make(chan struct{})
	results := make([]any, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = coord.GetOrHydrate(context.Background(), "standings:sec", time.Minute, loader)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, st.Len())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []standingRow{{Team: "georgia", Wins: 8}}, results[i])
	}
}

func TestCoordinator_DistinctKeysDoNotShareFlights(t *testing.T) {
	coord, _ := newTestCoordinator()
	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "ok", nil
	}

	_, err := coord.GetOrHydrate(context.Background(), "standings:sec", time.Minute, loader)
	require.NoError(t, err)
	_, err = coord.GetOrHydrate(context.Background(), "standings:acc", time.Minute, loader)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestCoordinator_FailureSharedAndNotCached(t *testing.T) {
	sink := &countingSink{}
	coord, st := newTestCoordinator(WithMetrics(sink))

	release := make(chan struct{})
	boom := errors.New("database unavailable")
	var calls atomic.Int32
	failing := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return nil, boom
	}

	const callers = 10
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coord.GetOrHydrate(context.Background(), "standings:sec", time.Minute, failing)
		}(i)
	}

	// One caller leads the hydration, the rest attach to it.
	require.Eventually(t, func() bool { return sink.Count("cache_waits_total") == callers-1 },
		2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, st.Len())

	var first *LoaderError
	require.ErrorAs(t, errs[0], &first)
	assert.Equal(t, "standings:sec", first.Key)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrLoaderFailed)
		assert.ErrorIs(t, err, boom)
		var le *LoaderError
		require.ErrorAs(t, err, &le)
		assert.Same(t, first, le)
	}

	// The next request retries.
	v, err := coord.GetOrHydrate(context.Background(), "standings:sec", time.Minute, func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, sink.Count("cache_loader_failures_total"))
}

func TestCoordinator_ExpiryTriggersRehydration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 11, 2, 18, 0, 0, 0, time.UTC)}
	coord, _ := newTestCoordinator(WithClock(clock.Now))

	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	v, err := coord.GetOrHydrate(context.Background(), "games:2024-11-02", 30*time.Second, loader)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	clock.Advance(30 * time.Second)
	v, err = coord.GetOrHydrate(context.Background(), "games:2024-11-02", 30*time.Second, loader)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v, "entry is still live at its expiry instant")

	clock.Advance(time.Second)
	v, err = coord.GetOrHydrate(context.Background(), "games:2024-11-02", 30*time.Second, loader)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestCoordinator_ZeroTTLAlwaysRevalidates(t *testing.T) {
	coord, _ := newTestCoordinator()
	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	for i := 0; i < 3; i++ {
		_, err := coord.GetOrHydrate(context.Background(), "conferences", 0, loader)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestCoordinator_ZeroTTLStillDeduplicatesConcurrentCallers(t *testing.T) {
	sink := &countingSink{}
	coord, _ := newTestCoordinator(WithMetrics(sink))

	release := make(chan struct{})
	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "fresh", nil
	}

	const callers = 5
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := coord.GetOrHydrate(context.Background(), "conferences", 0, loader)
			assert.NoError(t, err)
			assert.Equal(t, "fresh", v)
		}()
	}

	require.Eventually(t, func() bool { return sink.Count("cache_waits_total") == callers-1 },
		2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCoordinator_HydrationTimeout(t *testing.T) {
	st := NewMemoryStore()
	coord := NewCoordinator(st, 50*time.Millisecond, zap.NewNop())

	stuck := make(chan struct{})
	t.Cleanup(func() { close(stuck) })

	_, err := coord.GetOrHydrate(context.Background(), "standings:sec", time.Minute, func(ctx context.Context) (any, error) {
		<-stuck // ignores ctx
		return "late", nil
	})

	assert.ErrorIs(t, err, ErrLoaderFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, st.Len())
}

func TestCoordinator_LoaderPanicBecomesError(t *testing.T) {
	coord, st := newTestCoordinator()

	_, err := coord.GetOrHydrate(context.Background(), "games:2024-11-02", time.Minute, func(ctx context.Context) (any, error) {
		panic("nil map")
	})

	assert.ErrorIs(t, err, ErrLoaderFailed)
	assert.Contains(t, err.Error(), "nil map")
	assert.Equal(t, 0, st.Len())
}

func TestCoordinator_CallerCancellationDoesNotAbortHydration(t *testing.T) {
	coord, st := newTestCoordinator()

	release := make(chan struct{})
	var calls atomic.Int32
	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := coord.GetOrHydrate(ctx, "standings:sec", time.Minute, loader)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return st.Len() == 1 }, time.Second, 5*time.Millisecond)

	v, err := coord.GetOrHydrate(context.Background(), "standings:sec", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCoordinator_InvalidateRemovesOnly(t *testing.T) {
	coord, st := newTestCoordinator()
	load := func(v string) Loader {
		return func(ctx context.Context) (any, error) { return v, nil }
	}

	_, _ = coord.GetOrHydrate(context.Background(), "games:2024-11-01", time.Minute, load("a"))
	_, _ = coord.GetOrHydrate(context.Background(), "games:2024-11-02", time.Minute, load("b"))
	_, _ = coord.GetOrHydrate(context.Background(), "standings:sec", time.Minute, load("c"))

	assert.Equal(t, 2, coord.InvalidatePrefix("games:"))
	coord.Invalidate("standings:sec")
	coord.Invalidate("missing")
	assert.Equal(t, 0, st.Len())
}

func TestCoordinator_InvalidationDetachesRunningHydration(t *testing.T) {
	coord, st := newTestCoordinator()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	before := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "pre-sync", nil
	}

	first := make(chan any, 1)
	go func() {
		v, _ := coord.GetOrHydrate(ctx, "standings:sec", time.Minute, before)
		first <- v
	}()
	<-started

	// The sync commits and invalidates while the old hydration is still loading.
	coord.InvalidatePrefix("standings:")

	var calls atomic.Int32
	after := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "post-sync", nil
	}
	v, err := coord.GetOrHydrate(ctx, "standings:sec", time.Minute, after)
	require.NoError(t, err)
	assert.Equal(t, "post-sync", v, "a caller after invalidation must not attach to the old hydration")

	close(release)
	assert.Equal(t, "pre-sync", <-first, "waiters of the detached hydration still get its result")

	v, err = coord.GetOrHydrate(ctx, "standings:sec", time.Minute, after)
	require.NoError(t, err)
	assert.Equal(t, "post-sync", v)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, st.Len())
}

func TestCoordinator_InvalidateKeyDetachesRunningHydration(t *testing.T) {
	coord, _ := newTestCoordinator()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = coord.GetOrHydrate(ctx, "conferences", time.Minute, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return []string{"sec"}, nil
		})
	}()
	<-started

	coord.Invalidate("conferences")
	close(release)
	<-done

	v, err := coord.GetOrHydrate(ctx, "conferences", time.Minute, func(ctx context.Context) (any, error) {
		return []string{"big-ten", "sec"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"big-ten", "sec"}, v)
}

func TestGet_Typed(t *testing.T) {
	coord, _ := newTestCoordinator()

	rows, err := Get(context.Background(), coord, "standings:sec", time.Minute, func(ctx context.Context) ([]standingRow, error) {
		return []standingRow{{Team: "texas", Wins: 7}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "texas", rows[0].Team)

	_, err = Get(context.Background(), coord, "standings:sec", time.Minute, func(ctx context.Context) (string, error) {
		return "", nil
	})
	assert.ErrorContains(t, err, "holds")
}
