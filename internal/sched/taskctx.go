package sched

import (
	"context"
	"time"

	gserr "genserve/internal/errors"
)

// Result carries a value or an error across a suspension point, typically
// posted by an offload worker.
type Result struct {
	Value any
	Err   error
}

// TaskContext is handed to a task body. It provides the task's context and
// the three suspension points: awaiting another task, awaiting a posted
// result, and awaiting an I/O completion. Each suspension releases the
// carrier slot and reacquires one before the task continues.
type TaskContext struct {
	sched *Scheduler
	h     *Handle
	ctx   context.Context

	// holding tracks whether the task currently owns a carrier slot. It is
	// only touched from the task's own goroutine.
	holding bool
}

// Context returns the task's context. It is done once the task is
// cancelled, its deadline passes, or the submitting context is cancelled.
func (tc *TaskContext) Context() context.Context { return tc.ctx }

// Await suspends until other reaches a terminal state and returns its
// stored result. Tasks may only await handles created after themselves;
// that keeps the handoff graph acyclic and deadlock-free by construction.
func (tc *TaskContext) Await(other *Handle) (any, error) {
	if err := tc.suspend(); err != nil {
		return nil, err
	}
	var result any
	var err error
	select {
	case <-other.done:
		result, err = other.peek()
	case <-tc.ctx.Done():
		err = tc.ctx.Err()
	}
	if rerr := tc.resume(); rerr != nil {
		return nil, rerr
	}
	return result, err
}

// AwaitResult suspends until a Result arrives on ch, timeout elapses, or
// the task is cancelled. A timeout abandons the eventual result; whoever
// posts to ch must use a buffered channel so an abandoned post never
// blocks.
func (tc *TaskContext) AwaitResult(ch <-chan Result, timeout time.Duration) (any, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if err := tc.suspend(); err != nil {
		return nil, err
	}
	var result any
	var err error
	select {
	case r := <-ch:
		result, err = r.Value, r.Err
	case <-timer.C:
		err = gserr.ErrWorkerTimeout
	case <-tc.ctx.Done():
		err = tc.ctx.Err()
	}
	if rerr := tc.resume(); rerr != nil {
		return nil, rerr
	}
	return result, err
}

// AwaitIO releases the carrier slot for the duration of f. f must only wait
// on I/O readiness driven by the passed context, never burn CPU; CPU-bound
// work goes through the offload pool instead.
func (tc *TaskContext) AwaitIO(f func(ctx context.Context) (any, error)) (any, error) {
	if err := tc.suspend(); err != nil {
		return nil, err
	}
	result, err := f(tc.ctx)
	if rerr := tc.resume(); rerr != nil {
		return nil, rerr
	}
	return result, err
}

func (tc *TaskContext) suspend() error {
	if !tc.h.transition(StateRunning, StateSuspended) {
		return gserr.ErrCancelled
	}
	<-tc.sched.slots
	tc.holding = false
	return nil
}

func (tc *TaskContext) resume() error {
	select {
	case tc.sched.slots <- struct{}{}:
	case <-tc.ctx.Done():
		// Cancelled while waiting for a slot; the body unwinds without
		// running any further and finish records the cancellation.
		return gserr.ErrCancelled
	}
	if !tc.h.transition(StateSuspended, StateRunning) {
		// Cancelled while suspended: give the slot back and unwind.
		<-tc.sched.slots
		return gserr.ErrCancelled
	}
	tc.holding = true
	return nil
}
