// Package cache is a fixed-capacity key/value store with first-in, first-out
// eviction. It backs the transposition table, the board score cache and the
// move ordering cache of the search engine.
package cache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

var ErrInvalidCapacity = errors.New("cache capacity must be at least 1")

// ReplaceFunc decides whether candidate may overwrite existing under the same
// key. A nil ReplaceFunc always overwrites.
type ReplaceFunc[V any] func(existing, candidate V) bool

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is safe for concurrent use. Stores are serialized by the write lock;
// lookups share the read lock. Lookups do not touch eviction order, so
// eviction is FIFO over store events, not LRU.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	capacity int
	replace  ReplaceFunc[V]
	entries  map[K]*list.Element
	// front is the oldest entry, back the newest.
	order *list.List

	stores    atomic.Uint64
	refused   atomic.Uint64
	lookups   atomic.Uint64
	hits      atomic.Uint64
	evictions atomic.Uint64
}

// Stats are running counters since creation or the last Clear.
type Stats struct {
	Stores    uint64
	Refused   uint64
	Lookups   uint64
	Hits      uint64
	Evictions uint64
}

func New[K comparable, V any](capacity int, replace ReplaceFunc[V]) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Cache[K, V]{
		capacity: capacity,
		replace:  replace,
		entries:  make(map[K]*list.Element, min(capacity, 1<<16)),
		order:    list.New(),
	}, nil
}

func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Store inserts or replaces the value for key.
func (c *Cache[K, V]) Store(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[K, V])
		if c.replace != nil && !c.replace(e.value, value) {
			c.refused.Add(1)
			return
		}
		e.value = value
		c.order.MoveToBack(el)
		c.stores.Add(1)
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order.Front()
		delete(c.entries, oldest.Value.(*entry[K, V]).key)
		c.order.Remove(oldest)
		c.evictions.Add(1)
	}
	c.entries[key] = c.order.PushBack(&entry[K, V]{key: key, value: value})
	c.stores.Add(1)
}

// Lookup returns the value stored for key.
func (c *Cache[K, V]) Lookup(key K) (V, bool) {
	c.lookups.Add(1)
	c.mu.RLock()
	el, ok := c.entries[key]
	var v V
	if ok {
		v = el.Value.(*entry[K, V]).value
	}
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	}
	return v, ok
}

// Clear drops every entry and resets the counters.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debug().Int("entries", len(c.entries)).Int("capacity", c.capacity).Msg("clearing-cache")
	clear(c.entries)
	c.order.Init()
	c.stores.Store(0)
	c.refused.Store(0)
	c.lookups.Store(0)
	c.hits.Store(0)
	c.evictions.Store(0)
}

// Range calls fn for every entry from oldest to newest while holding the
// read lock. fn must not call back into the cache.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Stores:    c.stores.Load(),
		Refused:   c.refused.Load(),
		Lookups:   c.lookups.Load(),
		Hits:      c.hits.Load(),
		Evictions: c.evictions.Load(),
	}
}
