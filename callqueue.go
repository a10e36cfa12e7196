package callqueue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
)

// DefaultShutdownTimeout bounds how long [Dispatcher.Shutdown] waits for the
// worker to exit, when the caller's context carries no deadline and no other
// bound was configured.
const DefaultShutdownTimeout = time.Second * 5

// workerIDs allocates process-wide worker identifiers, for log correlation.
var workerIDs atomic.Uint64

type (
	// Config models optional configuration, for New.
	Config struct {
		// Logger receives lifecycle traces at debug level, and delivery
		// failures and shutdown timeouts at error level. Use
		// [logiface.Logger.Logger] to generify a typed logger.
		// **Defaults to nil (disabled), if Config is nil.**
		Logger *logiface.Logger[logiface.Event]

		// ShutdownTimeout bounds Shutdown's wait for worker exit, when the
		// caller's context has no deadline, if positive.
		// **Defaults to DefaultShutdownTimeout, if 0, or Config is nil.**
		// The default bound can be disabled, by setting this negative, in
		// which case Shutdown waits indefinitely (unless its context is
		// cancelled).
		ShutdownTimeout time.Duration
	}

	// Callback handles a single queued payload. It runs on the dispatcher's
	// worker goroutine, outside the dispatcher's lock. A non-nil error, or a
	// panic, is logged and otherwise discarded: failures never reach
	// producers, and never terminate the worker.
	Callback[T any] func(args T) error

	// Dispatcher delivers queued payloads to a single callback, serially, in
	// submission order, on one dedicated worker goroutine, decoupling
	// producers from callback execution. Instances must be initialized using
	// the New factory.
	//
	// All mutable state (lifecycle state, pending queue, worker handle,
	// counters) is guarded by a single mutex.
	Dispatcher[T any] struct {
		// betteralign:ignore

		callback        Callback[T]                        // configurable
		logger          *logiface.Logger[logiface.Event]   // configurable
		shutdownTimeout time.Duration                      // configurable
		id              string

		mu     sync.Mutex
		cond   sync.Cond // L is &mu
		state  State
		queue  []T
		worker *workerHandle // nil while no worker is alive

		enqueued  uint64
		delivered uint64
		failed    uint64
	}

	// workerHandle identifies one live worker goroutine. done is closed as
	// the worker's final act, strictly after it has cleared the dispatcher's
	// handle, so under the lock, handle presence implies worker liveness.
	workerHandle struct {
		id   uint64
		done chan struct{}
	}
)

// New initializes a new Dispatcher, using the provided Config and Callback.
// The provided config may be nil. A panic will occur if callback is nil.
//
// The dispatcher starts in [StateRunning], with a live worker. The
// Dispatcher.Close method and/or Dispatcher.Shutdown method should be called
// when the Dispatcher is no longer needed.
func New[T any](config *Config, callback Callback[T]) *Dispatcher[T] {
	if callback == nil {
		panic(`callqueue: nil callback`)
	}

	x := Dispatcher[T]{
		callback:        callback,
		shutdownTimeout: DefaultShutdownTimeout,
		state:           StateRunning,
		id:              uuid.NewString(),
	}
	x.cond.L = &x.mu

	var logger *logiface.Logger[logiface.Event]
	if config != nil {
		logger = config.Logger
		if config.ShutdownTimeout != 0 {
			x.shutdownTimeout = config.ShutdownTimeout
		}
	}
	x.logger = logger.Clone().
		Str(`dispatcher`, x.id).
		Logger()

	x.mu.Lock()
	x.spawnWorkerLocked()
	x.mu.Unlock()

	return &x
}

// Call appends args to the pending queue and wakes the worker, returning
// immediately, with no result. It never blocks on callback execution, and
// never fails due to callback behavior.
//
// Call remains valid after shutdown, but no worker remains to drain the
// queue: the payload is retained, silently, forever, and never delivered.
func (x *Dispatcher[T]) Call(args T) {
	x.mu.Lock()
	x.queue = append(x.queue, args)
	x.enqueued++
	x.cond.Signal()
	x.mu.Unlock()
}

// IsRunning returns true if and only if the dispatcher is in [StateRunning].
func (x *Dispatcher[T]) IsRunning() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state == StateRunning
}

// State returns the lifecycle state, at the time of the call.
func (x *Dispatcher[T]) State() State {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

// Shutdown permanently stops the dispatcher, then waits for the worker to
// exit, bounded by ctx. If ctx carries no deadline, the configured
// Config.ShutdownTimeout is applied. If the bound expires before the worker
// exits (e.g. the callback is stuck), the failure is logged, and the context
// error returned, as an advisory: the dispatcher is shut down regardless,
// and the worker is not interrupted. Pending payloads are abandoned, never
// drained.
//
// Once shut down, Shutdown returns nil immediately, without blocking.
func (x *Dispatcher[T]) Shutdown(ctx context.Context) error {
	x.mu.Lock()
	if x.state == StateShutdown {
		x.mu.Unlock()
		return nil
	}
	x.state = StateShutdown
	x.cond.Broadcast()
	h := x.worker
	pending := len(x.queue)
	x.mu.Unlock()

	x.logger.Debug().
		Int(`pending`, pending).
		Log(`shutdown requested`)

	if h == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok && x.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.shutdownTimeout)
		defer cancel()
	}

	start := time.Now()
	select {
	case <-h.done:
		return nil

	case <-ctx.Done():
		err := ctx.Err()
		x.logger.Err().
			Uint64(`worker`, h.id).
			Dur(`waited`, time.Since(start)).
			Err(err).
			Log(`shutdown timed out waiting for worker exit`)
		return err
	}
}

// Close permanently stops the dispatcher, equivalent to Shutdown with a
// background context (the configured bound still applies).
func (x *Dispatcher[T]) Close() error {
	return x.Shutdown(context.Background())
}

// spawnWorkerLocked starts a new worker. The caller must hold x.mu, and must
// have established that no worker is alive.
func (x *Dispatcher[T]) spawnWorkerLocked() {
	h := workerHandle{
		id:   workerIDs.Add(1),
		done: make(chan struct{}),
	}
	x.worker = &h
	go x.work(&h)
}

// work is the worker loop: wait for a payload or a state change, deliver
// payloads one at a time while in StateRunning, exit otherwise.
//
// A state change wakes the worker ahead of any pending backlog: payloads
// already queued are deliberately not consumed by the current worker. On
// pause they survive for the next worker; on shutdown there is no next
// worker, and they are abandoned.
func (x *Dispatcher[T]) work(h *workerHandle) {
	defer close(h.done)

	defer func() {
		x.mu.Lock()
		if x.worker == h {
			x.worker = nil
		}
		x.mu.Unlock()
	}()

	defer func() {
		x.logger.Debug().
			Uint64(`worker`, h.id).
			Stringer(`state`, x.State()).
			Log(`worker exiting`)
	}()

	x.logger.Debug().
		Uint64(`worker`, h.id).
		Log(`worker started`)

	for {
		x.mu.Lock()
		for len(x.queue) == 0 && x.state == StateRunning {
			x.cond.Wait()
		}
		if x.state != StateRunning {
			x.mu.Unlock()
			return
		}

		args := x.queue[0]
		var zero T
		x.queue[0] = zero
		x.queue = x.queue[1:]
		if len(x.queue) == 0 {
			x.queue = nil
		}
		x.mu.Unlock()

		x.deliver(h, args)
	}
}

// deliver invokes the callback, outside the lock. An error return or a
// recovered panic ends the delivery, not the worker; only unrecoverable
// runtime faults can take the worker down.
func (x *Dispatcher[T]) deliver(h *workerHandle, args T) {
	defer func() {
		if r := recover(); r != nil {
			x.deliveryFailed(h, PanicError{Value: r}, args)
		}
	}()

	if err := x.callback(args); err != nil {
		x.deliveryFailed(h, err, args)
		return
	}

	x.mu.Lock()
	x.delivered++
	x.mu.Unlock()
}

func (x *Dispatcher[T]) deliveryFailed(h *workerHandle, err error, args T) {
	x.logger.Err().
		Uint64(`worker`, h.id).
		Err(err).
		LogFunc(func() string { return fmt.Sprintf(`delivery failed: args: %v`, args) })

	// strictly after the log write: Stats observing the failure implies the
	// failure has been reported
	x.mu.Lock()
	x.failed++
	x.mu.Unlock()
}
