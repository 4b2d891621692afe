package position

import (
	"sync"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

const (
	// measureTTL keeps extents warm across a few frames; layout changes go
	// through explicit invalidation instead of waiting it out.
	measureTTL = 500 * time.Millisecond

	// fallbackExtent is used when a node reports a zero or negative raw
	// extent, so callers never divide by or wrap through zero.
	fallbackExtent = 500.0
)

type measureKey struct {
	node transform.Node
	dir  direction.Direction
}

type measureEntry struct {
	extent  float64
	expires time.Time
}

// Measurer caches content extents per (block, direction) with a short
// expiry. The layout/update path invalidates entries explicitly; the TTL
// only guards against stale reads between invalidation hooks.
type Measurer struct {
	mu      sync.Mutex
	entries map[measureKey]measureEntry

	// now is swappable for deterministic expiry tests.
	now func() time.Time
}

// NewMeasurer creates an empty extent cache.
func NewMeasurer() *Measurer {
	return &Measurer{
		entries: make(map[measureKey]measureEntry),
		now:     time.Now,
	}
}

// Extent returns the block's replicated-content length along dir's axis.
// forceRefresh bypasses the cache. Measurement failure falls back to a fixed
// safe default so the engine never halts on a degenerate layout.
func (m *Measurer) Extent(block transform.Node, dir direction.Direction, forceRefresh bool) float64 {
	cfg, err := direction.GetConfig(dir)
	if err != nil || block == nil {
		return fallbackExtent
	}

	key := measureKey{node: block, dir: dir}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !forceRefresh {
		if e, ok := m.entries[key]; ok && m.now().Before(e.expires) {
			return e.extent
		}
	}

	raw, err := block.Extent(cfg.Axis)
	if err != nil || raw <= 0 {
		return fallbackExtent
	}

	m.entries[key] = measureEntry{extent: raw, expires: m.now().Add(measureTTL)}
	return raw
}

// Invalidate drops cached extents for one block on all directions.
func (m *Measurer) Invalidate(block transform.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if key.node == block {
			delete(m.entries, key)
		}
	}
}

// InvalidateAll clears the cache; used on data replacement and re-layout.
func (m *Measurer) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[measureKey]measureEntry)
}
