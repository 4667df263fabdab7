package cache

import (
	"container/list"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxSize is the number of results kept before the oldest insert is evicted
	DefaultMaxSize = 100

	// DefaultMaxAge is how long a result stays valid
	DefaultMaxAge = time.Hour
)

// entry is a single cached result
type entry struct {
	value     string
	createdAt time.Time
	element   *list.Element // position in insertion order
}

func (e *entry) isExpired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.createdAt) > maxAge
}

// Option customizes a Cache
type Option func(*Cache)

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache is a bounded in-memory result store with lazy TTL expiry.
// When full, the entry inserted earliest is evicted regardless of how recently it was read.
// Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // front = oldest insert
	maxSize int
	maxAge  time.Duration
	now     func() time.Time
	hits    uint64
	misses  uint64
}

// New creates a Cache. Non-positive limits fall back to the defaults.
func New(maxSize int, maxAge time.Duration, opts ...Option) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	c := &Cache{
		entries: make(map[string]*entry),
		order:   list.New(),
		maxSize: maxSize,
		maxAge:  maxAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for an operation. Params are serialized with sorted keys,
// so equivalent requests always collide.
func Key(operation string, params map[string]string) string {
	// json.Marshal on a map[string]string cannot fail and sorts keys
	b, _ := json.Marshal(params)
	return operation + ":" + string(b)
}

// Get returns the value for key. Expired entries are removed and reported as a miss.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		c.misses++
		return "", false
	}
	if e.isExpired(c.now(), c.maxAge) {
		c.removeEntry(key)
		c.misses++
		return "", false
	}

	c.hits++
	return e.value, true
}

// Set stores value under key. Overwriting an existing key refreshes its value and
// timestamp in place and never evicts.
func (c *Cache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.entries[key]; exists {
		e.value = value
		e.createdAt = c.now()
		return
	}

	if c.order.Len() >= c.maxSize {
		c.evictOldest()
	}

	e := &entry{
		value:     value,
		createdAt: c.now(),
	}
	e.element = c.order.PushBack(key)
	c.entries[key] = e
}

// Len returns the number of stored entries, including not yet collected expired ones
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Invalidate removes a single key
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeEntry(key)
}

// InvalidateOperation removes every entry created for the given operation.
// Returns the number of removed entries.
func (c *Cache) InvalidateOperation(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := operation + ":"
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries and resets the counters
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.order.Init()
	c.hits = 0
	c.misses = 0
}

// Stats represents cache statistics
type Stats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	MaxAge  time.Duration `json:"max_age"`
	Hits    uint64        `json:"hits"`
	Misses  uint64        `json:"misses"`
	HitRate float64       `json:"hit_rate"`
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    c.order.Len(),
		MaxSize: c.maxSize,
		MaxAge:  c.maxAge,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// CleanupExpired removes all expired entries and returns how many were dropped
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := make([]string, 0)
	for key, e := range c.entries {
		if e.isExpired(now, c.maxAge) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.removeEntry(key)
	}
	return len(expired)
}

// StartCleanupWorker sweeps expired entries every interval until stopCh is closed
func (c *Cache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

// must be called with lock held
func (c *Cache) removeEntry(key string) {
	if e, exists := c.entries[key]; exists {
		c.order.Remove(e.element)
		delete(c.entries, key)
	}
}

// must be called with lock held
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}
