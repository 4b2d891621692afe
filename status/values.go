package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat provides atomic float64 operations via bit conversion.
// The zero value is ready to use and reads as 0.0.
type AtomicFloat struct {
	bits atomic.Uint64
}

// Set stores val atomically.
func (f *AtomicFloat) Set(val float64) {
	f.bits.Store(math.Float64bits(val))
}

// Get loads the value atomically.
func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add adds delta and returns the new value.
func (f *AtomicFloat) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// maxStringLen caps stored strings; longer values (error chains) truncate.
const maxStringLen = 64

// AtomicString provides atomic access to a short string value.
// The zero value reads as "".
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// Store sets the string, truncating to maxStringLen.
func (s *AtomicString) Store(val string) {
	if len(val) > maxStringLen {
		val = val[:maxStringLen]
	}
	s.ptr.Store(&val)
}

// Load returns the current value.
func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
