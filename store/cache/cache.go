// Package cache provides a small in-memory TTL cache used by the store to
// avoid repeated database reads for hot, rarely-changing objects.
package cache

import (
	"sync"
	"time"
)

// Config controls cache behavior.
type Config struct {
	// DefaultTTL is applied by Set; SetWithTTL overrides per item.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired items are swept. Zero disables
	// the background janitor; expired items are then dropped lazily on Get.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size. When full, Set evicts the item
	// closest to expiry. Zero means unbounded.
	MaxItems int
	// OnEviction, when non-nil, is invoked for every removed item.
	OnEviction func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe string-keyed TTL cache.
type Cache struct {
	mu        sync.RWMutex
	items     map[string]item
	config    Config
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine when the config asks
// for one. Callers must Close the cache to stop that goroutine.
func New(config Config) *Cache {
	c := &Cache{
		items:  make(map[string]item),
		config: config,
		done:   make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.janitor()
	}
	return c
}

// Get returns the cached value for key, or false when absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.Delete(key)
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL. A non-positive TTL
// is treated as the default.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.mu.Lock()
	if c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		if _, exists := c.items[key]; !exists {
			c.evictSoonestLocked()
		}
	}
	c.items[key] = item{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Delete removes key from the cache, firing OnEviction when set.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	it, ok := c.items[key]
	if ok {
		delete(c.items, key)
	}
	c.mu.Unlock()

	if ok && c.config.OnEviction != nil {
		c.config.OnEviction(key, it.value)
	}
}

// Clear removes every item without firing OnEviction.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}

// Len returns the number of items, expired ones included until swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine. The cache remains usable after Close
// but no longer sweeps expired items in the background.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// evictSoonestLocked drops the item with the earliest expiry. Caller holds
// the write lock.
func (c *Cache) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	first := true
	for key, it := range c.items {
		if first || it.expiresAt.Before(soonest) {
			victim, soonest = key, it.expiresAt
			first = false
		}
	}
	if first {
		return
	}

	it := c.items[victim]
	delete(c.items, victim)
	if c.config.OnEviction != nil {
		c.config.OnEviction(victim, it.value)
	}
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	var evicted []string
	var values []any
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			evicted = append(evicted, key)
			values = append(values, it.value)
			delete(c.items, key)
		}
	}
	c.mu.Unlock()

	if c.config.OnEviction != nil {
		for i, key := range evicted {
			c.config.OnEviction(key, values[i])
		}
	}
}
