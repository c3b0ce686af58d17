package cache

import (
	"sync"

	"github.com/TobiSchelling/storedash/internal/dataset"
)

// Loader turns a raw source into an enriched dataset.
type Loader func(dataset.Source) (*dataset.Dataset, error)

// Enrichment memoizes the enriched dataset of the most recent source. The
// dataset is recomputed only when the source content changes.
type Enrichment struct {
	mu   sync.Mutex
	load Loader
	key  string
	ds   *dataset.Dataset

	hits   int
	misses int
}

// NewEnrichment creates a cache around load. A nil load uses dataset.Load.
func NewEnrichment(load Loader) *Enrichment {
	if load == nil {
		load = dataset.Load
	}
	return &Enrichment{load: load}
}

// Get returns the enriched dataset for src, enriching it on first use or
// when src differs from the cached source. Failed loads are not cached.
func (c *Enrichment) Get(src dataset.Source) (*dataset.Dataset, error) {
	key := src.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ds != nil && c.key == key {
		c.hits++
		return c.ds, nil
	}
	c.misses++
	ds, err := c.load(src)
	if err != nil {
		return nil, err
	}
	c.key, c.ds = key, ds
	return ds, nil
}

// Invalidate drops the cached dataset.
func (c *Enrichment) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key, c.ds = "", nil
}

// Stats returns the number of cache hits and misses so far.
func (c *Enrichment) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
