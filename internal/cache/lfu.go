// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/ratewise/internal/metrics"
)

// lfuEntry is a node in a per-frequency doubly linked list.
type lfuEntry struct {
	key       string
	value     interface{}
	freq      int
	expiresAt time.Time
	prev      *lfuEntry
	next      *lfuEntry
}

// freqList holds entries with equal frequency, most recently used first.
type freqList struct {
	head *lfuEntry
	tail *lfuEntry
	size int
}

func newFreqList() *freqList {
	fl := &freqList{head: &lfuEntry{}, tail: &lfuEntry{}}
	fl.head.next = fl.tail
	fl.tail.prev = fl.head
	return fl
}

func (fl *freqList) pushFront(e *lfuEntry) {
	e.prev = fl.head
	e.next = fl.head.next
	fl.head.next.prev = e
	fl.head.next = e
	fl.size++
}

func (fl *freqList) unlink(e *lfuEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	fl.size--
}

func (fl *freqList) popBack() *lfuEntry {
	if fl.size == 0 {
		return nil
	}
	e := fl.tail.prev
	fl.unlink(e)
	return e
}

// LFUCache is a bounded cache that evicts the least frequently used entry,
// breaking ties by recency. Entries also expire after their TTL. All
// operations are O(1).
type LFUCache struct {
	name     string
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	keys    map[string]*lfuEntry
	freqs   map[int]*freqList
	minFreq int
	stats   Stats
}

// NewLFUCache creates an LFU cache. Non-positive capacity or ttl take
// defaults.
func NewLFUCache(name string, capacity int, ttl time.Duration) *LFUCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LFUCache{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		keys:     make(map[string]*lfuEntry, capacity),
		freqs:    make(map[int]*freqList),
	}
}

// Get returns the value for key and bumps its frequency.
func (c *LFUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	e, ok := c.keys[key]
	switch {
	case !ok:
		c.stats.Misses++
	case c.now().After(e.expiresAt):
		c.remove(e)
		c.stats.Misses++
		c.stats.Evictions++
		ok = false
	default:
		c.touch(e)
		c.stats.Hits++
	}
	var value interface{}
	if ok {
		value = e.value
	}
	c.mu.Unlock()

	metrics.RecordCacheLookup(c.name, ok)
	return value, ok
}

// Set stores value under key with the default TTL.
func (c *LFUCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key, evicting the least frequently used
// entry when full.
func (c *LFUCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if e, ok := c.keys[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.touch(e)
		return
	}

	if len(c.keys) >= c.capacity {
		c.evict()
	}

	e := &lfuEntry{key: key, value: value, freq: 1, expiresAt: expiresAt}
	if c.freqs[1] == nil {
		c.freqs[1] = newFreqList()
	}
	c.freqs[1].pushFront(e)
	c.keys[key] = e
	c.minFreq = 1
	c.stats.TotalKeys = int64(len(c.keys))
}

// Delete removes key.
func (c *LFUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.keys[key]; ok {
		c.remove(e)
		c.stats.Evictions++
	}
}

// Clear removes every entry.
func (c *LFUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Evictions += int64(len(c.keys))
	c.keys = make(map[string]*lfuEntry, c.capacity)
	c.freqs = make(map[int]*freqList)
	c.minFreq = 0
	c.stats.TotalKeys = 0
}

// GetStats returns a snapshot of the counters.
func (c *LFUCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// HitRate returns hits as a percentage of lookups.
func (c *LFUCache) HitRate() float64 {
	return hitRate(c.GetStats())
}

// Frequency returns the access count of key, or 0 if absent.
func (c *LFUCache) Frequency(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.keys[key]; ok {
		return e.freq
	}
	return 0
}

// Close is a no-op; expired entries are removed lazily.
func (c *LFUCache) Close() {}

func (c *LFUCache) touch(e *lfuEntry) {
	old := e.freq
	if fl := c.freqs[old]; fl != nil {
		fl.unlink(e)
		if fl.size == 0 {
			delete(c.freqs, old)
			if c.minFreq == old {
				c.minFreq++
			}
		}
	}

	e.freq++
	if c.freqs[e.freq] == nil {
		c.freqs[e.freq] = newFreqList()
	}
	c.freqs[e.freq].pushFront(e)
}

func (c *LFUCache) evict() {
	fl := c.freqs[c.minFreq]
	if fl == nil {
		return
	}
	if e := fl.popBack(); e != nil {
		if fl.size == 0 {
			delete(c.freqs, c.minFreq)
		}
		delete(c.keys, e.key)
		c.stats.Evictions++
		c.stats.TotalKeys = int64(len(c.keys))
	}
}

func (c *LFUCache) remove(e *lfuEntry) {
	if fl := c.freqs[e.freq]; fl != nil {
		fl.unlink(e)
		if fl.size == 0 {
			delete(c.freqs, e.freq)
		}
	}
	delete(c.keys, e.key)
	c.stats.TotalKeys = int64(len(c.keys))
}
