// Package query implements the incremental, memoized query layer (spec.md
// §4.5, C5): infer and evaluate results keyed by content hash, so
// re-running an unchanged definition is a cache hit with no explicit
// invalidation step — staleness falls directly out of hash identity
// (spec.md §4.5 invariant: a hash never changes meaning, so a cached
// result under a hash is valid forever).
//
// Grounded on the teacher's internal/ext/cache.go (Cache.Get computing a
// key, consulting a sync.Map, falling back to a supplied compute function)
// generalized from "one cache for FFI call results" to "one cache per query
// kind", and internal/pipeline.Pipeline.Run's cooperative-cancellation
// threading of context.Context through each processing stage.
package query

import (
	"context"
	"sync"
)

// Cache memoizes Compute's results per key, safe for concurrent use by
// multiple workspace queries (spec.md §4.5's "several queries for
// independent definitions may run concurrently" note).
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	inner sync.Map // K -> *entry[V]
}

type entry[V any] struct {
	once  sync.Once
	value V
	err   error
}

// NewCache builds an empty Cache.
func NewCache[K comparable, V any]() *Cache[K, V] { return &Cache[K, V]{} }

// Get returns the memoized result for key, computing it via compute on the
// first request and sharing that single computation's result (and any
// error) with every concurrent or later caller for the same key.
func (c *Cache[K, V]) Get(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	raw, _ := c.inner.LoadOrStore(key, &entry[V]{})
	e := raw.(*entry[V])
	e.once.Do(func() {
		e.value, e.err = compute(ctx)
	})
	return e.value, e.err
}

// Invalidate drops the memoized entry for key, so the next Get computes it
// afresh. Engine.InvalidateName calls it when Workspace.Commit rebinds a
// name away from key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.inner.Delete(key)
}

// Len reports how many entries are currently memoized (diagnostic/testing
// use only).
func (c *Cache[K, V]) Len() int {
	n := 0
	c.inner.Range(func(any, any) bool { n++; return true })
	return n
}
