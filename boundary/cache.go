// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package boundary

import (
	"container/list"
	"sync"
)

// DefaultCacheSize bounds the coordinate cache when no size is configured.
const DefaultCacheSize = 10_000

// CacheStats is a snapshot of the coordinate cache counters.
type CacheStats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// LRU is a fixed-capacity least-recently-used cache safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu   sync.Mutex
	cap  int
	lst  *list.List
	dict map[K]*list.Element

	hits, misses, evictions uint64
}

type entry[K comparable, V any] struct {
	k K
	v V
}

// NewLRU returns an empty cache holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}

	return &LRU[K, V]{cap: capacity, lst: list.New(), dict: make(map[K]*list.Element)}
}

// Get returns the cached value for k and marks it as recently used.
func (c *LRU[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.dict[k]; ok {
		c.hits++
		c.lst.MoveToFront(e)

		return e.Value.(entry[K, V]).v, true
	}

	c.misses++

	var zero V

	return zero, false
}

// Set stores v under k, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.dict[k]; ok {
		e.Value = entry[K, V]{k: k, v: v}
		c.lst.MoveToFront(e)

		return
	}

	c.dict[k] = c.lst.PushFront(entry[K, V]{k: k, v: v})

	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(entry[K, V]).k)
		c.lst.Remove(back)
		c.evictions++
	}
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lst.Len()
}

// Reset drops every entry and zeroes the counters.
func (c *LRU[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lst.Init()
	c.dict = make(map[K]*list.Element)
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Stats returns the current counters.
func (c *LRU[K, V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Size:      c.lst.Len(),
		Capacity:  c.cap,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
