package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"
)

// node represents a node in the doubly-linked list
type node struct {
	key     string
	value   domain.Rule
	expires time.Time // zero means no expiry
	prev    *node
	next    *node
}

// LRUCache maps slugs to published rules with LRU eviction and an optional TTL.
// Only positive lookups are cached; an unknown slug is always re-queried.
type LRUCache struct {
	maxSize int
	size    int
	ttl     time.Duration

	// Doubly-linked list for LRU ordering
	head *node
	tail *node

	cache map[string]*node
	mutex sync.Mutex

	hits   int64
	misses int64

	now func() time.Time
}

// NewLRUCache creates a new LRU cache with the specified maximum size and no TTL
func NewLRUCache(maxSize int) *LRUCache {
	return NewLRUCacheWithTTL(maxSize, 0)
}

// NewLRUCacheWithTTL creates a cache whose entries expire ttl after being set
func NewLRUCacheWithTTL(maxSize int, ttl time.Duration) *LRUCache {
	if maxSize <= 0 {
		maxSize = 10000
	}

	// Sentinel head and tail simplify list manipulation
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head

	return &LRUCache{
		maxSize: maxSize,
		ttl:     ttl,
		head:    head,
		tail:    tail,
		cache:   make(map[string]*node),
		now:     time.Now,
	}
}

// Get retrieves a copy of the cached rule and marks it as recently used
func (c *LRUCache) Get(key string) (*domain.Rule, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	found, exists := c.cache[key]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	if !found.expires.IsZero() && !c.now().Before(found.expires) {
		c.removeNode(found)
		delete(c.cache, key)
		c.size--
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	c.moveToFront(found)
	atomic.AddInt64(&c.hits, 1)

	rule := found.value
	return &rule, true
}

// Set adds or updates a value in the cache
func (c *LRUCache) Set(key string, rule *domain.Rule) {
	if rule == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}

	if existing, exists := c.cache[key]; exists {
		existing.value = *rule
		existing.expires = expires
		c.moveToFront(existing)
		return
	}

	newNode := &node{key: key, value: *rule, expires: expires}
	c.addToFront(newNode)
	c.cache[key] = newNode
	c.size++

	if c.size > c.maxSize {
		c.evictLRU()
	}
}

// Invalidate removes a specific key from the cache
func (c *LRUCache) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[key]; exists {
		c.removeNode(n)
		delete(c.cache, key)
		c.size--
	}
}

// Clear removes all entries from the cache and resets counters
func (c *LRUCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.cache = make(map[string]*node)
	c.size = 0

	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats returns current cache statistics
func (c *LRUCache) Stats() domain.CacheStats {
	c.mutex.Lock()
	size := c.size
	c.mutex.Unlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses

	var hitRatio float64
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return domain.CacheStats{
		Hits:     hits,
		Misses:   misses,
		Size:     size,
		MaxSize:  c.maxSize,
		HitRatio: hitRatio,
	}
}

// HealthCheck performs a health check on the cache
func (c *LRUCache) HealthCheck(ctx context.Context) domain.HealthStatus {
	stats := c.Stats()

	status := domain.HealthStatusHealthy
	message := "Cache is operating normally"
	details := map[string]any{
		"size":      stats.Size,
		"max_size":  stats.MaxSize,
		"hit_ratio": stats.HitRatio,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"ttl":       c.ttl.String(),
	}

	if stats.Size >= int(float64(stats.MaxSize)*0.9) {
		status = domain.HealthStatusDegraded
		message = "Cache is near capacity"
		details["warning"] = "Cache utilization above 90%"
	}

	// Misses are expected for every non-redirect request, so the ratio is informational
	if stats.HitRatio < 0.5 && stats.Hits+stats.Misses > 100 {
		details["hit_ratio_warning"] = "Hit ratio below 50%"
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

func (c *LRUCache) moveToFront(n *node) {
	c.removeNode(n)
	c.addToFront(n)
}

func (c *LRUCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRUCache) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

// evictLRU removes the least recently used item from the cache
func (c *LRUCache) evictLRU() {
	if c.tail.prev == c.head {
		return
	}

	lru := c.tail.prev
	c.removeNode(lru)
	delete(c.cache, lru.key)
	c.size--
}
