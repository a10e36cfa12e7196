// Package callqueue provides an asynchronous callback dispatcher: payloads
// are enqueued by arbitrarily many producer goroutines, and delivered to a
// single user-supplied callback by exactly one dedicated worker goroutine,
// serially, in submission order, so that producers neither block on callback
// execution nor observe its outcome.
//
// # Architecture
//
// A [Dispatcher] is three tightly-fused parts sharing a single mutex:
//
//   - a state register, holding the lifecycle [State] (Running, Paused, or
//     Shutdown) and the handle of the current worker, if any
//   - a pending-invocation queue: an ordered, unbounded backlog of captured
//     payloads
//   - a worker loop, woken by a condition variable when a payload arrives or
//     the state changes
//
// [Dispatcher.Call] appends and signals, without waiting. The worker pops
// one payload at a time, invoking the [Callback] outside the lock. A
// callback error or panic is logged and discarded; delivery of subsequent
// payloads proceeds normally.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Payload delivery is totally
// ordered: payloads are delivered in the order their Call invocations
// acquired the dispatcher's lock, one at a time, never concurrently. At most
// one worker goroutine is alive at any instant, across any sequence of
// pause, resume, reopen, and shutdown calls.
//
// [Dispatcher.Shutdown] (bounded) and [Dispatcher.PauseBeforeFork]
// (unbounded) are the only blocking methods; neither interrupts an in-flight
// callback.
//
// # Fork Safety
//
// Forking duplicates a process's memory, but not its threads: a forked child
// inherits the dispatcher's state and queue, with no worker goroutine to
// drain it. The dispatcher does not hook the fork itself; instead it exposes
// a three-part contract for the host's integration layer:
//
//	d.PauseBeforeFork()           // parent, before fork: joins the worker
//	pid := fork()                 // host-specific
//	d.ResumeAfterForkInParent()   // parent, after fork: new worker, retained queue
//	d.ReopenAfterForkInChild()    // child: fresh worker for the inherited queue
//
// # Usage
//
//	dispatcher := callqueue.New(nil, func(event string) error {
//	    fmt.Println(event)
//	    return nil
//	})
//	defer dispatcher.Close()
//
//	dispatcher.Call(`hello`)
//
// Logging uses [github.com/joeycumines/logiface]: provide a generified
// logger via [Config.Logger] to receive lifecycle traces (debug level) and
// delivery failures (error level). Without one, the dispatcher is silent.
package callqueue
