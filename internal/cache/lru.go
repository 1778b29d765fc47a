// Package cache provides in-memory caches for embeddings and model metadata
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// LRU implements a thread-safe LRU cache with generics
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates a new LRU cache. Capacities below 1 are raised to 1.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves a value from the cache, returning (value, true) if found
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	c.order.MoveToFront(elem)
	return elem.Value.(*entry[K, V]).value, true
}

// Put adds or updates a value in the cache
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry[K, V]).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.items, oldest.Value.(*entry[K, V]).key)
			c.order.Remove(oldest)
			c.evictions.Add(1)
		}
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
}

// Delete removes a key from the cache
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		delete(c.items, key)
		c.order.Remove(elem)
	}
}

// Len returns the current number of items in the cache
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all items from the cache
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order = list.New()
}

// Stats returns cache hit/miss statistics
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Evictions returns how many entries were dropped for capacity
func (c *LRU[K, V]) Evictions() int64 {
	return c.evictions.Load()
}

// HitRate returns the cache hit rate as a percentage
func (c *LRU[K, V]) HitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// EmbeddingCache memoises embeddings per (model, dimension, text)
type EmbeddingCache struct {
	cache *LRU[string, []float32]
}

// NewEmbeddingCache creates an embedding cache holding up to capacity vectors
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		cache: NewLRU[string, []float32](capacity),
	}
}

// Get returns a copy of the cached embedding
func (c *EmbeddingCache) Get(model string, dimension int, text string) ([]float32, bool) {
	v, ok := c.cache.Get(cacheKey(model, dimension, text))
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Put stores a copy of embedding
func (c *EmbeddingCache) Put(model string, dimension int, text string, embedding []float32) {
	embCopy := make([]float32, len(embedding))
	copy(embCopy, embedding)
	c.cache.Put(cacheKey(model, dimension, text), embCopy)
}

// Clear drops every cached embedding
func (c *EmbeddingCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached embeddings
func (c *EmbeddingCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics
func (c *EmbeddingCache) Stats() (hits, misses int64, hitRate float64) {
	hits, misses = c.cache.Stats()
	hitRate = c.cache.HitRate()
	return
}

// cacheKey hashes model, dimension and text into a fixed-size key.
// Each part is length-prefixed so boundaries cannot collide.
func cacheKey(model string, dimension int, text string) string {
	h := sha256.New()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(model)))
	h.Write(n[:])
	h.Write([]byte(model))
	binary.LittleEndian.PutUint64(n[:], uint64(dimension))
	h.Write(n[:])
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
