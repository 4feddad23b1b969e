package sched

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	gserr "genserve/internal/errors"
)

// Handle is the caller's reference to a submitted task. The scheduler owns
// the task's lifecycle; callers only await or cancel through the handle.
type Handle struct {
	id uuid.UUID

	mu     sync.Mutex
	state  State
	result any
	err    error
	done   chan struct{}

	cancelTask context.CancelFunc
}

func newHandle(cancel context.CancelFunc) *Handle {
	return &Handle{
		id:         uuid.New(),
		state:      StatePending,
		done:       make(chan struct{}),
		cancelTask: cancel,
	}
}

// ID returns the task's unique identifier.
func (h *Handle) ID() uuid.UUID { return h.id }

// State returns a snapshot of the task's current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Await blocks the calling goroutine until the task reaches a terminal
// state or ctx is done. Awaiting an already-completed handle returns the
// stored result immediately; awaiting a cancelled handle fails with
// ErrCancelled. From inside another task, use TaskContext.Await instead so
// the carrier slot is released while waiting.
func (h *Handle) Await(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.peek()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryResult reports the task's stored outcome without blocking. ok is
// false while the task has not reached a terminal state.
func (h *Handle) TryResult() (result any, err error, ok bool) {
	select {
	case <-h.done:
		result, err = h.peek()
		return result, err, true
	default:
		return nil, nil, false
	}
}

// Cancel requests cooperative cancellation. A Pending or Suspended task is
// marked Cancelled immediately and any waiter is unblocked with
// ErrCancelled. A Running task observes cancellation at its next suspension
// point. Cancelling a terminal task is a no-op. Work already delegated to
// an offload worker is not interrupted; only its result is abandoned.
func (h *Handle) Cancel() {
	h.mu.Lock()
	switch h.state {
	case StatePending, StateSuspended:
		h.state = StateCancelled
		h.err = gserr.ErrCancelled
		close(h.done)
	}
	h.mu.Unlock()
	h.cancelTask()
}

func (h *Handle) peek() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// transition moves from→to and reports whether the move happened. It never
// leaves a terminal state.
func (h *Handle) transition(from, to State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != from || h.state.Terminal() {
		return false
	}
	h.state = to
	return true
}

// finish records the task's outcome. If the task was already cancelled
// while suspended, the late result is dropped.
func (h *Handle) finish(result any, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Terminal() {
		return
	}
	switch {
	case err == nil:
		h.state = StateCompleted
		h.result = result
	case errors.Is(err, gserr.ErrCancelled) || errors.Is(err, context.Canceled):
		h.state = StateCancelled
		h.err = gserr.ErrCancelled
	default:
		h.state = StateFailed
		h.err = err
	}
	close(h.done)
}

// Option configures a submitted task.
type Option func(*taskConfig)

type taskConfig struct {
	deadline time.Time
}

// WithDeadline bounds the task's total lifetime. A task past its deadline
// fails with context.DeadlineExceeded at its next suspension point.
func WithDeadline(d time.Time) Option {
	return func(c *taskConfig) { c.deadline = d }
}
