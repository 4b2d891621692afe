// Package status holds the engine's diagnostic counters. Components cache
// metric pointers at init and write to atomics from the frame path; readers
// take a consistent snapshot for display.
package status

import "sync/atomic"

// Registry is the central metrics facade.
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry.
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns the number of registered metrics across all types.
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Snapshot copies every metric into a plain map for display or logging.
// Values are read individually; the snapshot is not a single atomic cut.
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any, r.TotalCount())
	r.Bools.Range(func(key string, ptr *atomic.Bool) {
		out[key] = ptr.Load()
	})
	r.Ints.Range(func(key string, ptr *atomic.Int64) {
		out[key] = ptr.Load()
	})
	r.Floats.Range(func(key string, ptr *AtomicFloat) {
		out[key] = ptr.Get()
	})
	r.Strings.Range(func(key string, ptr *AtomicString) {
		out[key] = ptr.Load()
	})
	return out
}
