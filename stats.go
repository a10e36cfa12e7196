package callqueue

// Stats is a point-in-time snapshot of a dispatcher, taken under its lock.
// See [Dispatcher.Stats].
type Stats struct {
	// State is the lifecycle state at snapshot time.
	State State

	// WorkerAlive indicates whether a worker goroutine was alive.
	WorkerAlive bool

	// Pending is the number of queued, not-yet-delivered payloads. Note
	// that payloads pending at shutdown remain counted: they are abandoned,
	// not cleared.
	Pending int

	// Enqueued counts Call invocations, including any made after shutdown.
	Enqueued uint64

	// Delivered counts callback invocations that returned nil.
	Delivered uint64

	// Failed counts callback invocations that returned a non-nil error, or
	// panicked.
	Failed uint64
}

// Stats returns a snapshot of dispatcher statistics.
func (x *Dispatcher[T]) Stats() Stats {
	x.mu.Lock()
	defer x.mu.Unlock()
	return Stats{
		State:       x.state,
		WorkerAlive: x.worker != nil,
		Pending:     len(x.queue),
		Enqueued:    x.enqueued,
		Delivered:   x.delivered,
		Failed:      x.failed,
	}
}
