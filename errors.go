package callqueue

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPaused is returned by [Dispatcher.ResumeAfterForkInParent] when
	// the dispatcher is not in the Paused state, e.g. because
	// [Dispatcher.PauseBeforeFork] was never called, or returned without
	// pausing (no worker was alive), or the dispatcher has been shut down.
	ErrNotPaused = errors.New("callqueue: dispatcher not paused")

	// ErrWorkerAlive is returned by [Dispatcher.ResumeAfterForkInParent] when
	// a worker handle is still present, indicating misuse of the fork hooks.
	ErrWorkerAlive = errors.New("callqueue: worker still alive")
)

// PanicError wraps a panic value recovered from a callback.
//
// It is never returned to producers; it is reported via the configured
// logger, identifying the delivery that failed.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("callqueue: callback panicked: %v", e.Value)
}

// Unwrap returns the panic value, if it was an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
