package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sports-pipeline/core/metrics"

	"go.uber.org/zap"
)

// Loader reads a value from the origin store on a cache miss.
type Loader func(ctx context.Context) (any, error)

// flight is one hydration in progress. val and err are written once, before done is closed.
// A flight detached by invalidation still releases its waiters but never writes the store.
type flight struct {
	done chan struct{}
	val  any
	err  error

	mu       sync.Mutex
	detached bool
}

// Coordinator implements cache-aside reads with single-flight hydration.
//
// In-flight bookkeeping lives in a sync.Map keyed by cache key, so attaching to or starting
// a hydration only touches that key's slot. There is no coordinator-wide lock.
type Coordinator struct {
	store   Store
	flights sync.Map // key -> *flight
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
	sink    metrics.Sink
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithMetrics sets the sink for hit/miss/failure counters.
func WithMetrics(sink metrics.Sink) Option {
	return func(c *Coordinator) { c.sink = sink }
}

// NewCoordinator creates a Coordinator over store. hydrateTimeout bounds each loader call;
// zero means 5 seconds.
func NewCoordinator(store Store, hydrateTimeout time.Duration, logger *zap.Logger, opts ...Option) *Coordinator {
	if hydrateTimeout <= 0 {
		hydrateTimeout = 5 * time.Second
	}
	c := &Coordinator{
		store:   store,
		timeout: hydrateTimeout,
		now:     time.Now,
		logger:  logger,
		sink:    metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrHydrate returns the live cached value for key, or hydrates it with load.
//
// Concurrent callers for the same cold key share one loader call and all observe the same
// value or the same *LoaderError. A failed hydration writes nothing, so the next request
// retries. Cancelling ctx releases only this caller; the hydration keeps running for the
// others and is bounded by the hydrate timeout.
func (c *Coordinator) GetOrHydrate(ctx context.Context, key string, ttl time.Duration, load Loader) (any, error) {
	if e, ok := c.store.Get(key); ok && e.Live(c.now()) {
		c.emit("cache_hits_total", key)
		return e.Value, nil
	}

	f := &flight{done: make(chan struct{})}
	actual, loaded := c.flights.LoadOrStore(key, f)
	if loaded {
		c.emit("cache_waits_total", key)
		return c.wait(ctx, actual.(*flight))
	}

	// A hydration may have finished between the store check and LoadOrStore.
	if e, ok := c.store.Get(key); ok && e.Live(c.now()) {
		f.val = e.Value
		c.finish(key, f)
		c.emit("cache_hits_total", key)
		return e.Value, nil
	}

	c.emit("cache_misses_total", key)
	go c.hydrate(context.WithoutCancel(ctx), key, ttl, load, f)
	return c.wait(ctx, f)
}

// Invalidate removes key from the store. A hydration already running for key is detached:
// its waiters still receive its result, but it is not stored and later callers start a new
// hydration. It never writes a value.
func (c *Coordinator) Invalidate(key string) {
	if v, ok := c.flights.Load(key); ok {
		c.detach(key, v.(*flight))
	}
	c.store.Delete(key)
}

// InvalidatePrefix removes every key starting with prefix and returns how many were removed.
// Running hydrations of matching keys are detached as in Invalidate.
func (c *Coordinator) InvalidatePrefix(prefix string) int {
	c.flights.Range(func(k, v any) bool {
		if key := k.(string); strings.HasPrefix(key, prefix) {
			c.detach(key, v.(*flight))
		}
		return true
	})
	return c.store.DeletePrefix(prefix)
}

// detach must run before the store delete: a hydration that stored its value first is
// then removed by the delete, and one that had not yet stored skips the write.
func (c *Coordinator) detach(key string, f *flight) {
	f.mu.Lock()
	f.detached = true
	f.mu.Unlock()
	c.flights.CompareAndDelete(key, f)
}

// hydrate runs load under the hydrate timeout and settles f.
func (c *Coordinator) hydrate(ctx context.Context, key string, ttl time.Duration, load Loader, f *flight) {
	loadCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		val any
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- result{err: fmt.Errorf("loader panic: %v", r)}
			}
		}()
		v, err := load(loadCtx)
		resCh <- result{val: v, err: err}
	}()

	var res result
	select {
	case res = <-resCh:
	case <-loadCtx.Done():
		// A loader that ignores its context is abandoned; its late result is discarded.
		res = result{err: fmt.Errorf("hydration timed out after %s: %w", c.timeout, loadCtx.Err())}
	}

	if res.err != nil {
		f.err = &LoaderError{Key: key, Err: res.err}
		c.logger.Warn("Cache hydration failed", zap.String("key", key), zap.Error(res.err))
		c.emit("cache_loader_failures_total", key)
		c.finish(key, f)
		return
	}

	now := c.now()
	if ttl < 0 {
		ttl = 0
	}
	f.mu.Lock()
	if f.detached {
		c.emit("cache_detached_total", key)
	} else {
		c.store.Set(Entry{Key: key, Value: res.val, StoredAt: now, ExpiresAt: now.Add(ttl)})
	}
	f.mu.Unlock()
	f.val = res.val
	c.finish(key, f)
}

// finish clears the in-flight record and releases every waiter.
func (c *Coordinator) finish(key string, f *flight) {
	c.flights.CompareAndDelete(key, f)
	close(f.done)
}

func (c *Coordinator) wait(ctx context.Context, f *flight) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) emit(name, key string) {
	c.sink.Emit(metrics.Event{
		Name:      name,
		Value:     1,
		Tags:      map[string]string{"query": queryOf(key)},
		Timestamp: c.now(),
	})
}

// queryOf returns the query part of a key ("standings:sec" -> "standings") to keep tag
// cardinality bounded.
func queryOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' || key[i] == '?' {
			return key[:i]
		}
	}
	return key
}

// Get is a typed wrapper around GetOrHydrate.
func Get[T any](ctx context.Context, c *Coordinator, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.GetOrHydrate(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T, not %T", key, v, zero)
	}
	return typed, nil
}
