// Package cache provides a thread-safe LRU cache of compiled expressions.
//
// Re-sampling the same expression over a new range, as when panning or
// zooming a plot, needs only the cached tree rather than a fresh parse.
//
// # Example
//
//	c := cache.New(256)
//	e, err := c.Compile("2x^2 + 3sin(x)")
package cache

import (
	"container/list"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zephyrtronium/plotexpr"
)

// DefaultCapacity is the capacity of a cache created with a non-positive
// capacity.
const DefaultCapacity = 256

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	expr *plotexpr.Expr
}

// Cache is an LRU cache of compiled expressions keyed by source text. Once
// the capacity is reached, the least recently used expression is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	hits, misses, evictions atomic.Int64
}

// Stats counts cache lookups.
type Stats struct {
	Hits, Misses, Evictions int
}

// New creates a new LRU cache with the given capacity.
// If capacity <= 0, DefaultCapacity is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Key returns the cache key for source text. Surrounding whitespace does not
// change an expression, so it is not part of the key.
func Key(src string) string {
	return strings.TrimSpace(src)
}

// Get retrieves a compiled expression and marks it most recently used.
func (c *Cache) Get(src string) (*plotexpr.Expr, bool) {
	key := Key(src)
	c.mu.RLock()
	el, ok := c.items[key]
	var e *plotexpr.Expr
	if ok {
		e = el.Value.(*entry).expr
	}
	front := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if front {
		c.hits.Add(1)
		return e, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check in case of concurrent eviction.
	el, ok = c.items[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.hits.Add(1)
	return el.Value.(*entry).expr, true
}

// Set inserts or replaces an expression.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(src string, e *plotexpr.Expr) {
	key := Key(src)
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).expr = e
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	c.items[key] = c.ll.PushFront(&entry{key: key, expr: e})
}

// GetOrCompile retrieves the expression for src, or calls compile to create
// it and caches the result. Errors are not cached.
func (c *Cache) GetOrCompile(src string, compile func(string) (*plotexpr.Expr, error)) (*plotexpr.Expr, error) {
	if e, ok := c.Get(src); ok {
		return e, nil
	}
	e, err := compile(Key(src))
	if err != nil {
		return nil, err
	}
	c.Set(src, e)
	return e, nil
}

// Compile is GetOrCompile with plotexpr.Parse.
func (c *Cache) Compile(src string) (*plotexpr.Expr, error) {
	return c.GetOrCompile(src, plotexpr.Parse)
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the lookup counts so far.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      int(c.hits.Load()),
		Misses:    int(c.misses.Load()),
		Evictions: int(c.evictions.Load()),
	}
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(src string) {
	key := Key(src)
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear removes all entries from the cache. Stats are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
	c.evictions.Add(1)
}
