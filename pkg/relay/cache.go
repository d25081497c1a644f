package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// minSweepInterval bounds the sweep period for very short TTLs.
const minSweepInterval = time.Millisecond

type cacheEntry[T any] struct {
	storedAt time.Time
	value    T
}

// Cache is a concurrency-safe map with a time-to-live. Entries older than the
// TTL are removed by a background sweep running every ttl/2, whether or not
// anybody read them.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
	onEvict func(key string, value T)

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewCache creates a cache and starts its sweep goroutine. The goroutine runs
// until Close.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	interval := max(ttl/2, minSweepInterval)

	c := &Cache[T]{
		entries:  make(map[string]cacheEntry[T]),
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		logger:   slog.Default().With("component", "relay.cache"),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	go c.run()
	return c
}

// OnEvict registers fn to be called for every entry removed by a sweep.
// It is not called for Remove, Take or Close.
func (c *Cache[T]) OnEvict(fn func(key string, value T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Put stores value under a freshly generated key and returns the key.
func (c *Cache[T]) Put(value T) string {
	key := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Keys are unique among live entries.
	for _, exists := c.entries[key]; exists; _, exists = c.entries[key] {
		key = uuid.NewString()
	}
	c.entries[key] = cacheEntry[T]{storedAt: c.now(), value: value}
	return key
}

// PutKey stores or overwrites value under key, then sweeps synchronously.
func (c *Cache[T]) PutKey(key string, value T) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{storedAt: c.now(), value: value}
	c.mu.Unlock()

	c.sweep()
}

// Get returns the value stored under key.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return e.value, ok
}

// Take removes and returns the value stored under key. Of several concurrent
// callers for the same key at most one gets ok == true.
func (c *Cache[T]) Take(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return e.value, ok
}

// Remove deletes key if present.
func (c *Cache[T]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the configured time-to-live.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Close drops all entries and stops the sweep. It is safe to call more than
// once.
func (c *Cache[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		<-c.done

		c.mu.Lock()
		clear(c.entries)
		c.mu.Unlock()
	})
}

func (c *Cache[T]) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

// sweep removes entries older than the TTL. A panicking eviction hook is
// logged and does not stop later sweeps.
func (c *Cache[T]) sweep() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cache sweep panicked", "panic", r)
		}
	}()

	type evicted struct {
		key   string
		value T
	}

	c.mu.Lock()
	now := c.now()
	var removed []evicted
	for key, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, key)
			removed = append(removed, evicted{key: key, value: e.value})
		}
	}
	hook := c.onEvict
	c.mu.Unlock()

	if len(removed) > 0 {
		c.logger.Debug("evicted expired entries", "count", len(removed))
	}
	if hook == nil {
		return
	}
	for _, r := range removed {
		hook(r.key, r.value)
	}
}
