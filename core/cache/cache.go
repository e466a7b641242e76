// Package cache keeps recently parsed Score Trees so batch conversions of
// repeated sources skip the parse. Keys are blake3 content hashes, so two
// byte-identical inputs share one cached tree.
package cache

import (
	"container/list"
	"sync"

	"github.com/comref/converter/core/score"
)

// Stats counts cache traffic since creation.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// LRU is a thread-safe fixed-capacity cache that evicts the least recently
// used entry when full.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	byKey   map[K]*list.Element
	hits    int64
	misses  int64
	evicted int64
}

type pair[K comparable, V any] struct {
	key K
	val V
}

// NewLRU creates a cache holding at most max entries. A max below one means
// unbounded.
func NewLRU[K comparable, V any](max int) *LRU[K, V] {
	return &LRU[K, V]{
		max:   max,
		order: list.New(),
		byKey: make(map[K]*list.Element),
	}
}

// Get returns the cached value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*pair[K, V]).val, true
}

// Put stores a value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*pair[K, V]).val = val
		return
	}
	c.byKey[key] = c.order.PushFront(&pair[K, V]{key: key, val: val})
	if c.max > 0 && c.order.Len() > c.max {
		if oldest := c.order.Back(); oldest != nil {
			c.drop(oldest)
			c.evicted++
		}
	}
}

// Remove deletes the entry for key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		c.drop(el)
	}
}

// Clear empties the cache, keeping the traffic counters.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.byKey = make(map[K]*list.Element)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the traffic counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evicted,
		Size:      c.order.Len(),
		MaxSize:   c.max,
	}
}

func (c *LRU[K, V]) drop(el *list.Element) {
	c.order.Remove(el)
	delete(c.byKey, el.Value.(*pair[K, V]).key)
}

// TreeCache holds parsed Score Trees keyed by the blake3 hash of their
// source bytes.
type TreeCache struct {
	lru *LRU[string, *score.Tree]
}

// NewTreeCache creates a tree cache holding at most max trees.
func NewTreeCache(max int) *TreeCache {
	return &TreeCache{lru: NewLRU[string, *score.Tree](max)}
}

// NewDefaultTreeCache creates a tree cache sized for batch conversion runs.
func NewDefaultTreeCache() *TreeCache {
	return NewTreeCache(50) // trees can be large, keep fewer
}

// Get retrieves a tree by source hash.
func (c *TreeCache) Get(hash string) (*score.Tree, bool) {
	return c.lru.Get(hash)
}

// Put stores a tree under its source hash.
func (c *TreeCache) Put(hash string, t *score.Tree) {
	c.lru.Put(hash, t)
}

// Remove drops the tree cached under hash.
func (c *TreeCache) Remove(hash string) {
	c.lru.Remove(hash)
}

// Clear empties the cache.
func (c *TreeCache) Clear() {
	c.lru.Clear()
}

// Len returns the number of cached trees.
func (c *TreeCache) Len() int {
	return c.lru.Len()
}

// Stats returns cache statistics.
func (c *TreeCache) Stats() Stats {
	return c.lru.Stats()
}
