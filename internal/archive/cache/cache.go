// Package cache is a bounded in-memory store of decrypted batch contents
// with least-recently-used eviction under a hard byte budget.
package cache

import (
	"sync"
	"time"

	"github.com/planquery/appealvault/internal/archive/models"
)

// DefaultMaxSize is the cache byte budget (100 MB).
const DefaultMaxSize = 100 * 1024 * 1024

type entry struct {
	batch      *models.DecryptedBatch
	size       int64
	lastAccess time.Time
	// used orders entries for eviction. It is a monotonic counter rather
	// than a timestamp so eviction order is deterministic even when two
	// accesses land on the same clock reading.
	used uint64
}

// Cache owns all cached decrypted batches. Safe for concurrent use: batch
// operations within a search chunk overlap on separate goroutines.
type Cache struct {
	mu          sync.Mutex
	maxSize     int64
	currentSize int64
	entries     map[string]*entry
	clock       uint64
}

// New creates a cache with the given byte budget. A non-positive budget
// falls back to DefaultMaxSize.
func New(maxSize int64) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		maxSize: maxSize,
		entries: make(map[string]*entry),
	}
}

// Get returns the cached batch for batchID, refreshing its last-access
// marker, or (nil, false) on a miss.
func (c *Cache) Get(batchID string) (*models.DecryptedBatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[batchID]
	if !ok {
		return nil, false
	}
	c.clock++
	e.used = c.clock
	e.lastAccess = time.Now()
	return e.batch, true
}

// Put inserts a batch with its approximate byte size, evicting
// least-recently-used entries until the new total fits the budget. An entry
// larger than the whole budget is still admitted once the cache is empty;
// it cannot be split.
func (c *Cache) Put(batchID string, batch *models.DecryptedBatch, approxSize int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[batchID]; ok {
		c.currentSize -= old.size
		delete(c.entries, batchID)
	}

	for c.currentSize+approxSize > c.maxSize && len(c.entries) > 0 {
		c.evictOldest()
	}

	c.clock++
	c.entries[batchID] = &entry{
		batch:      batch,
		size:       approxSize,
		lastAccess: time.Now(),
		used:       c.clock,
	}
	c.currentSize += approxSize
}

// evictOldest removes the entry with the smallest access mark.
// Caller holds the lock.
func (c *Cache) evictOldest() {
	var oldestID string
	var oldest *entry
	for id, e := range c.entries {
		if oldest == nil || e.used < oldest.used {
			oldestID = id
			oldest = e
		}
	}
	c.currentSize -= oldest.size
	delete(c.entries, oldestID)
}

// Clear empties the cache and resets the size accounting to zero.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.currentSize = 0
}

// Stats reports current byte usage, entry count and the budget.
func (c *Cache) Stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CacheStats{
		CacheSize:     c.currentSize,
		CachedBatches: len(c.entries),
		MaxCacheSize:  c.maxSize,
	}
}
