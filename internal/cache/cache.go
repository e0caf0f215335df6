// Package cache holds recently served chunks in memory so repeated
// search hits skip the record store. The cache is bounded and evicts in
// batches: when an insert would exceed capacity, the oldest-accessed
// 20% of entries go at once, so eviction cost is paid rarely instead
// of on every insert.
package cache

import (
	"sort"
	"sync"
	"time"
)

// DefaultCapacity matches the engine's default cache_size.
const DefaultCapacity = 1000

// evictFraction is the share of entries dropped when the cache is full.
const evictFraction = 0.2

// Entry is a cached chunk: the decoded text plus the metadata search
// results carry.
type Entry struct {
	Text        string
	FilePath    string
	ChunkIndex  int
	TotalChunks int
	StartChar   int
	EndChar     int
}

type cacheSlot struct {
	entry        Entry
	lastAccessed time.Time
}

// ChunkCache is a bounded map from chunk id to Entry. Safe for
// concurrent use.
type ChunkCache struct {
	mu        sync.Mutex
	capacity  int
	slots     map[int64]*cacheSlot
	evictions int64
	hits      int64
	misses    int64
	now       func() time.Time
}

// New creates a cache with the given capacity. Non-positive capacity
// falls back to DefaultCapacity.
func New(capacity int) *ChunkCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ChunkCache{
		capacity: capacity,
		slots:    make(map[int64]*cacheSlot),
		now:      time.Now,
	}
}

// Get returns the cached entry for id and marks it accessed.
func (c *ChunkCache) Get(id int64) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[id]
	if !ok {
		c.misses++
		return Entry{}, false
	}
	slot.lastAccessed = c.now()
	c.hits++
	return slot.entry, true
}

// Put inserts or refreshes the entry for id, evicting first if the
// cache is full.
func (c *ChunkCache) Put(id int64, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slot, ok := c.slots[id]; ok {
		slot.entry = entry
		slot.lastAccessed = c.now()
		return
	}

	if len(c.slots) >= c.capacity {
		c.evictOldest()
	}
	c.slots[id] = &cacheSlot{entry: entry, lastAccessed: c.now()}
}

// evictOldest removes the 20% of entries with the oldest access time.
// Callers hold the lock.
func (c *ChunkCache) evictOldest() {
	type aged struct {
		id       int64
		accessed time.Time
	}
	entries := make([]aged, 0, len(c.slots))
	for id, slot := range c.slots {
		entries = append(entries, aged{id: id, accessed: slot.lastAccessed})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].accessed.Equal(entries[j].accessed) {
			return entries[i].accessed.Before(entries[j].accessed)
		}
		return entries[i].id < entries[j].id
	})

	toRemove := int(float64(len(entries)) * evictFraction)
	if toRemove < 1 {
		toRemove = 1
	}
	for i := 0; i < toRemove; i++ {
		delete(c.slots, entries[i].id)
		c.evictions++
	}
}

// Invalidate drops the entry for id if present.
func (c *ChunkCache) Invalidate(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, id)
}

// Clear drops every entry. Counters survive; they describe the cache's
// lifetime, not its current contents.
func (c *ChunkCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[int64]*cacheSlot)
}

// Len returns the number of cached entries.
func (c *ChunkCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Stats describes the cache for the engine's statistics surface.
type Stats struct {
	Size        int     `json:"size"`
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization_pct"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Evictions   int64   `json:"evictions"`
}

// Stats returns a snapshot of the cache counters.
func (c *ChunkCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:        len(c.slots),
		Capacity:    c.capacity,
		Utilization: float64(len(c.slots)) / float64(c.capacity) * 100,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
	}
}
