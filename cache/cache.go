// ABOUTME: In-memory cache with TTL-based expiration
// ABOUTME: Backing store for short-lived auth state (login states, OTP codes)

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	data      interface{}
	expiresAt time.Time
}

// Cache is a thread-safe TTL map. Expired entries are dropped lazily on Get
// and swept periodically by a background goroutine until Close is called.
type Cache struct {
	store sync.Map
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// New creates a cache whose entries expire after ttl by default and starts
// the sweep goroutine.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *Cache) Get(key string) (interface{}, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		return nil, false
	}

	e := val.(entry)
	if time.Now().After(e.expiresAt) {
		c.store.Delete(key)
		slog.Debug("Cache entry expired", "key", key)
		return nil, false
	}

	return e.data, true
}

func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.store.Store(key, entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	})
}

func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Close stops the background sweep goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.store.Range(func(key, val interface{}) bool {
				if now.After(val.(entry).expiresAt) {
					c.store.Delete(key)
				}
				return true
			})
		}
	}
}
