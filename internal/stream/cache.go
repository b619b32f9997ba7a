package stream

import (
	"sync"

	"github.com/asc0ltato/summary-api/internal/metrics"
	"github.com/asc0ltato/summary-api/internal/models"
)

// Cache holds approved summaries keyed by email group ID. Entries live for
// the lifetime of the process; there is no eviction and no TTL. Writes are
// last-write-wins per key. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.ApprovedSummary
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]models.ApprovedSummary)}
}

// Put upserts a single summary.
func (c *Cache) Put(summary models.ApprovedSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[summary.EmailGroupID] = summary
	metrics.CacheSize.Set(float64(len(c.entries)))
}

// Merge bulk-upserts summaries, replacing existing entries per key.
func (c *Cache) Merge(summaries []models.ApprovedSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range summaries {
		c.entries[s.EmailGroupID] = s
	}
	metrics.CacheSize.Set(float64(len(c.entries)))
}

// Snapshot returns a copy of all cached summaries.
func (c *Cache) Snapshot() []models.ApprovedSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ApprovedSummary, 0, len(c.entries))
	for _, s := range c.entries {
		out = append(out, s)
	}
	return out
}

// Len returns the number of cached summaries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
