package callqueue

// PauseBeforeFork suspends delivery ahead of a process fork, blocking without
// bound until the worker has fully exited, which requires any in-flight
// callback to return first. Pending payloads are retained, for delivery
// after [Dispatcher.ResumeAfterForkInParent].
//
// If no worker is alive, PauseBeforeFork returns immediately WITHOUT pausing:
// the state remains [StateRunning], and a subsequent
// [Dispatcher.ResumeAfterForkInParent] will fail with [ErrNotPaused]. It
// likewise returns immediately if the dispatcher has been shut down.
//
// The dispatcher never intercepts the fork itself: the host is responsible
// for calling PauseBeforeFork before forking, then
// [Dispatcher.ResumeAfterForkInParent] in the parent, and
// [Dispatcher.ReopenAfterForkInChild] in the child.
func (x *Dispatcher[T]) PauseBeforeFork() {
	x.mu.Lock()
	h := x.worker
	if x.state != StateRunning || h == nil {
		st := x.state
		x.mu.Unlock()
		x.logger.Debug().
			Stringer(`state`, st).
			Bool(`worker`, h != nil).
			Log(`pause skipped`)
		return
	}
	x.state = StatePaused
	x.cond.Broadcast()
	x.mu.Unlock()

	<-h.done

	x.logger.Debug().
		Uint64(`worker`, h.id).
		Log(`paused`)
}

// ResumeAfterForkInParent resumes delivery in the parent process, after a
// fork. It requires the dispatcher to be in [StatePaused] with no live
// worker, i.e. as left by [Dispatcher.PauseBeforeFork], returning
// [ErrNotPaused] or [ErrWorkerAlive] otherwise. On success it transitions to
// [StateRunning] and spawns a new worker, which drains the retained queue.
func (x *Dispatcher[T]) ResumeAfterForkInParent() error {
	x.mu.Lock()
	if x.state != StatePaused {
		x.mu.Unlock()
		return ErrNotPaused
	}
	if x.worker != nil {
		x.mu.Unlock()
		return ErrWorkerAlive
	}
	x.state = StateRunning
	x.spawnWorkerLocked()
	id := x.worker.id
	x.mu.Unlock()

	x.logger.Debug().
		Uint64(`worker`, id).
		Log(`resumed`)

	return nil
}

// ReopenAfterForkInChild re-materializes the worker in the child process,
// after a fork. The child inherits the dispatcher's memory (state, pending
// queue) but not the parent's worker goroutine. It is an idempotent no-op
// unless the state is [StateRunning] with no live worker, in which case a
// fresh worker is spawned, which drains the inherited queue.
func (x *Dispatcher[T]) ReopenAfterForkInChild() {
	x.mu.Lock()
	if x.state != StateRunning || x.worker != nil {
		x.mu.Unlock()
		return
	}
	x.spawnWorkerLocked()
	id := x.worker.id
	x.mu.Unlock()

	x.logger.Debug().
		Uint64(`worker`, id).
		Log(`reopened after fork`)
}
