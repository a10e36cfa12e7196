package callqueue

// State represents the lifecycle state of a [Dispatcher].
//
// State Machine:
//
//	StateRunning (0) → StatePaused (1)    [Dispatcher.PauseBeforeFork]
//	StatePaused (1) → StateRunning (0)    [Dispatcher.ResumeAfterForkInParent]
//	StateRunning (0) → StateShutdown (2)  [Dispatcher.Shutdown]
//	StatePaused (1) → StateShutdown (2)   [Dispatcher.Shutdown]
//	StateShutdown (2) → (terminal)
//
// All reads and writes occur under the dispatcher's mutex, alongside the
// pending queue and the worker handle.
type State uint32

const (
	// StateRunning indicates the dispatcher accepts work and a worker is
	// expected to be delivering it. This is the initial state.
	StateRunning State = iota
	// StatePaused indicates delivery is suspended and the worker has been
	// joined, e.g. ahead of a process fork. The pending queue is retained.
	StatePaused
	// StateShutdown indicates the dispatcher has been permanently stopped.
	// The pending queue is abandoned, never drained.
	StateShutdown
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}
