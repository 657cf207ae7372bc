// Package cache keeps recognized tables in memory, keyed by a hash of the
// uploaded image, so re-uploads skip the recognition engine.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "tablecal/internal/log"
	"tablecal/internal/table"
)

// DefaultPurgeSpec empties the cache when the week window rolls over.
const DefaultPurgeSpec = "0 0 * * 1"

var cacheLog = appLog.New("cache")

// TableCache is a concurrency-safe map of image hash to normalized table.
// Cached tables are shared and must not be mutated.
type TableCache struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

func NewTableCache() *TableCache {
	return &TableCache{tables: make(map[string]*table.Table)}
}

func (c *TableCache) Get(key string) (*table.Table, bool) {
	if key == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[key]
	return t, ok
}

func (c *TableCache) Put(key string, t *table.Table) {
	if key == "" || t == nil {
		return
	}
	c.mu.Lock()
	c.tables[key] = t
	c.mu.Unlock()
}

func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Purge drops every entry and returns how many were removed.
func (c *TableCache) Purge() int {
	c.mu.Lock()
	n := len(c.tables)
	c.tables = make(map[string]*table.Table)
	c.mu.Unlock()
	return n
}

// StartPurger runs Purge on the given cron schedule until ctx is canceled.
// An empty spec uses DefaultPurgeSpec.
func (c *TableCache) StartPurger(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultPurgeSpec
	}
	cr := cron.New()
	if _, err := cr.AddFunc(spec, func() {
		n := c.Purge()
		cacheLog.Info("table cache purged", "entries", n)
	}); err != nil {
		return fmt.Errorf("cache: invalid purge schedule %q: %w", spec, err)
	}
	cr.Start()
	cacheLog.Info("table cache purger started", "schedule", spec)

	go func() {
		<-ctx.Done()
		<-cr.Stop().Done()
	}()
	return nil
}
