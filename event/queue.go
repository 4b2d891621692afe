package event

import "sync/atomic"

// QueueSize bounds pending events. Power of two; the mask indexes slots.
const (
	QueueSize = 256
	queueMask = QueueSize - 1
)

// Queue is a lock-free MPSC ring buffer.
//
// Thread-safety:
//   - Push: lock-free CAS, any goroutine
//   - Consume: single consumer (the engine's frame/drain path)
//   - published flags prevent reading half-written slots
//
// Overflow drops the oldest events; an engine that cannot drain 256 events
// per frame has bigger problems than lost notifications.
type Queue struct {
	events    [QueueSize]Event
	published [QueueSize]atomic.Bool
	head      atomic.Uint64
	tail      atomic.Uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends ev, overwriting the oldest entry when full.
func (q *Queue) Push(ev Event) {
	for {
		tail := q.tail.Load()
		if !q.tail.CompareAndSwap(tail, tail+1) {
			continue
		}
		idx := tail & queueMask
		q.events[idx] = ev
		q.published[idx].Store(true) // must follow the write

		head := q.head.Load()
		if tail+1-head > QueueSize {
			q.head.CompareAndSwap(head, tail+1-QueueSize)
		}
		return
	}
}

// Consume returns all pending events in FIFO order and advances the head.
// Single-consumer; concurrent Push is safe.
func (q *Queue) Consume() []Event {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if tail == head {
			return nil
		}

		available := tail - head
		if available > QueueSize {
			available = QueueSize
			head = tail - QueueSize
		}

		out := make([]Event, 0, available)
		for i := uint64(0); i < available; i++ {
			idx := (head + i) & queueMask
			if !q.published[idx].Load() {
				break // writer still in flight
			}
			out = append(out, q.events[idx])
			q.published[idx].Store(false)
		}

		if q.head.CompareAndSwap(head, head+uint64(len(out))) {
			if len(out) == 0 {
				return nil
			}
			return out
		}
	}
}

// Len returns the approximate pending count.
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	n := int(tail - head)
	if n > QueueSize {
		return QueueSize
	}
	return n
}
