// Package engine implements the per-partition execution engine: a
// compile cache keyed by (database, SQL text), an operator DAG builder,
// and a Session that runs scan -> project -> limit (optionally
// windowed) against a storage.Partition.
package engine

import (
	"sync"

	"github.com/imotai/HybridSE/row"
	"github.com/imotai/HybridSE/sqlfront"
)

// CompileInfo is one cache entry: the parsed SQL context, its compiled
// operator DAG, and the output schema the DAG's trailing Project
// produces. Shared, immutable after publication; many sessions attach
// to one CompileInfo concurrently (spec.md §4.E/§9's "cache entry
// ownership" note — Go's garbage collector stands in for the
// reference-counted shared ownership a non-GC'd implementation needs).
type CompileInfo struct {
	Query        *sqlfront.Query
	Plan         *Plan
	OutputSchema *row.Schema
}

type cacheKey struct {
	db  string
	sql string
}

// Cache is the engine's compile cache: (db, sql) -> CompileInfo,
// entries created on first lookup and never evicted, per spec.md §4.E.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*CompileInfo
}

// NewCache creates an empty compile cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*CompileInfo)}
}

// Get looks up (db, sql) in the cache, compiling against tableSchema on
// a miss. Compilation happens outside the lock; if another goroutine
// wins the race and inserts first, this call discards its own
// CompileInfo and adopts the winner's (spec.md §5's "first writer
// wins" rule).
func (c *Cache) Get(db, sql string, tableSchema *row.Schema) (*CompileInfo, error) {
	key := cacheKey{db: db, sql: sql}

	c.mu.Lock()
	if info, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	info, err := compile(sql, tableSchema)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, nil
	}
	c.entries[key] = info
	return info, nil
}

func compile(sql string, tableSchema *row.Schema) (*CompileInfo, error) {
	q, err := sqlfront.ParseQuery(sql)
	if err != nil {
		return nil, err
	}
	plan, outSchema, err := buildPlan(q, tableSchema)
	if err != nil {
		return nil, err
	}
	return &CompileInfo{Query: q, Plan: plan, OutputSchema: outSchema}, nil
}
