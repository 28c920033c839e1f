package catalog

import (
	"container/list"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/city-explorer/internal/model"
)

// ResultCache is a concurrent-safe LRU cache of query results with TTL
// expiration. Entries are keyed by snapshot generation so a reload never
// serves results computed against an older snapshot.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]*list.Element
	recency    *list.List // front is most recently used
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type resultEntry struct {
	key       string
	cities    []model.MergedCity
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewResultCache creates a ResultCache with the given capacity and TTL. A
// capacity of zero or less disables caching.
func NewResultCache(maxEntries int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries:    make(map[string]*list.Element),
		recency:    list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func resultKey(generation uint64, stateKey string) string {
	return strconv.FormatUint(generation, 10) + "|" + stateKey
}

// Get returns a cached result. The returned slice is shared and must not be
// modified.
func (c *ResultCache) Get(generation uint64, stateKey string) ([]model.MergedCity, bool) {
	if c == nil || c.maxEntries <= 0 {
		return nil, false
	}
	key := resultKey(generation, stateKey)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	entry := el.Value.(*resultEntry)
	if c.expired(entry) {
		c.remove(el)
		c.misses.Add(1)
		return nil, false
	}

	c.recency.MoveToFront(el)
	c.hits.Add(1)
	return entry.cities, true
}

// Put stores a result, evicting the least recently used entry if at capacity.
func (c *ResultCache) Put(generation uint64, stateKey string, cities []model.MergedCity) {
	if c == nil || c.maxEntries <= 0 {
		return
	}
	key := resultKey(generation, stateKey)
	entry := &resultEntry{key: key, cities: cities, createdAt: time.Now()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.recency.MoveToFront(el)
		return
	}

	for c.recency.Len() >= c.maxEntries {
		c.remove(c.recency.Back())
	}
	c.entries[key] = c.recency.PushFront(entry)
}

// Purge drops every entry.
func (c *ResultCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.recency.Init()
}

func (c *ResultCache) expired(e *resultEntry) bool {
	return c.ttl > 0 && time.Since(e.createdAt) > c.ttl
}

// remove unlinks el. Callers hold c.mu.
func (c *ResultCache) remove(el *list.Element) {
	c.recency.Remove(el)
	delete(c.entries, el.Value.(*resultEntry).key)
}

// Stats returns cache performance statistics.
func (c *ResultCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.RLock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}
