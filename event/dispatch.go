package event

// Sink receives drained events; hosts supply one via the engine's OnEvent
// option. A nil sink discards.
type Sink func(Event)

// Dispatcher drains a queue into a sink.
type Dispatcher struct {
	queue *Queue
	sink  Sink
}

// NewDispatcher attaches a sink to a queue.
func NewDispatcher(queue *Queue, sink Sink) *Dispatcher {
	return &Dispatcher{queue: queue, sink: sink}
}

// DispatchAll consumes all pending events and forwards them in order.
// Returns the number of events delivered.
func (d *Dispatcher) DispatchAll() int {
	events := d.queue.Consume()
	if d.sink == nil {
		return 0
	}
	for _, ev := range events {
		d.sink(ev)
	}
	return len(events)
}
