// Package cache implements the shared result cache described in
// spec.md §4.1 and §5: a memoization table for expensive waveform
// queries (zero-crossing and edge searches) keyed by
// (waveform pointer, revision, parameter). It is guarded by a single
// mutex whose critical section covers only the map lookup/insert, never
// the computation that produced the cached value (spec.md §5).
package cache

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Key identifies one cached result. Waveform should be the waveform's
// own pointer (e.g. *waveform.Sparse[float32]) boxed in the interface;
// identity comparison on the interface value is identity comparison on
// the pointer, exactly like the original's WaveformCacheKey. Param must
// be a comparable value such as a float32 threshold.
type Key struct {
	Waveform any
	Revision uint64
	Param    any
}

// Cache is a process-wide memoization table. The zero value is not
// usable; construct with New. Multiple decoders may share one Cache
// instance safely.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]any

	// sweepLimiter bounds how often Put opportunistically sweeps stale
	// entries (older revisions of the waveform it just stored) so that a
	// long-running graph doesn't grow the cache without bound between
	// explicit Clear calls.
	sweepLimiter *rate.Limiter
	sweepEvery   int
	puts         int
}

// New creates an empty cache. sweepInterval bounds how often Put may run
// an opportunistic sweep that drops older revisions of the waveform it
// just stored; pass 0 to disable sweeping (entries are then only removed
// by explicit Clear).
func New(sweepInterval time.Duration) *Cache {
	c := &Cache{entries: make(map[Key]any)}
	if sweepInterval > 0 {
		c.sweepLimiter = rate.NewLimiter(rate.Every(sweepInterval), 1)
	}
	return c
}

// Get returns the cached value for k, if present. A cache miss is
// invisible to callers beyond the boolean: it simply triggers
// recomputation (spec.md §7).
func (c *Cache) Get(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[k]
	return v, ok
}

// Put stores a computed value for k. The computation itself must happen
// outside the critical section; only the map mutation is guarded.
func (c *Cache) Put(k Key, v any) {
	c.mu.Lock()
	c.entries[k] = v
	c.puts++
	shouldSweep := c.sweepLimiter != nil && c.sweepLimiter.Allow()
	c.mu.Unlock()

	if shouldSweep {
		c.sweepStaleRevisions(k.Waveform, k.Revision)
	}
}

// sweepStaleRevisions drops cached entries for the same waveform pointer
// at an older revision than the one just inserted: once a waveform's
// samples change, every prior revision's cached analysis is dead weight.
func (c *Cache) sweepStaleRevisions(wfm any, currentRev uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Waveform == wfm && k.Revision < currentRev {
			delete(c.entries, k)
		}
	}
}

// Clear removes every cached entry. Called explicitly, or when a
// filter's ClearAnalysisCache is invoked (spec.md §4.1).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]any)
}

// Len reports the number of cached entries; used by tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
