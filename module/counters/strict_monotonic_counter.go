package counters

import "sync/atomic"

// StrictMonotonicCounter is a helper struct which implements a strict
// monotonic counter. It is used by the consensus core to track strictly
// increasing values such as the lowest retained view of the vote and
// timeout aggregators.
type StrictMonotonicCounter struct {
	atomicCounter uint64
}

// NewMonotonicCounter creates a new counter with the initial value.
func NewMonotonicCounter(initial uint64) StrictMonotonicCounter {
	return StrictMonotonicCounter{
		atomicCounter: initial,
	}
}

// Set updates the value of the counter if and only if it is strictly larger
// than the value stored previously. The operation is implemented as an atomic
// compare-and-swap loop. Returns true if the update was applied.
func (c *StrictMonotonicCounter) Set(processing uint64) bool {
	for {
		old := atomic.LoadUint64(&c.atomicCounter)
		if processing <= old {
			return false
		}
		if atomic.CompareAndSwapUint64(&c.atomicCounter, old, processing) {
			return true
		}
	}
}

// Value returns the current value of the counter.
func (c *StrictMonotonicCounter) Value() uint64 {
	return atomic.LoadUint64(&c.atomicCounter)
}
