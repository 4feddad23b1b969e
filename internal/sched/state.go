package sched

import "fmt"

// State is the lifecycle state of a task. Transitions are monotonic:
// Pending → Running → {Suspended → Running}* → {Completed | Failed | Cancelled}.
// A task is never resumed after reaching a terminal state.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateSuspended
	StateCompleted
	StateFailed
	StateCancelled
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
