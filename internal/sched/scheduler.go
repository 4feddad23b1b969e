// Package sched implements the cooperative scheduler the rest of the core
// runs on. An arbitrary number of logical tasks interleave on a small fixed
// number of carrier slots; a task holds a slot while running and releases
// it at every suspension point, so waiting never stalls a carrier.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	gserr "genserve/internal/errors"
	"genserve/internal/metrics"
)

// Func is the body of a logical task. It must not block between suspension
// points: anything that waits goes through the TaskContext (Await, AwaitIO,
// AwaitResult) and genuinely blocking computation goes through the offload
// pool.
type Func func(tc *TaskContext) (any, error)

// Config configures a Scheduler.
type Config struct {
	// Carriers is the number of carrier slots. Default 1, which gives
	// strict cooperative semantics; >1 is the hybrid model.
	Carriers int
	Logger   *slog.Logger
}

// Scheduler runs logical tasks cooperatively. It is safe for concurrent use.
type Scheduler struct {
	slots  chan struct{}
	logger *slog.Logger

	mu     sync.Mutex
	closed bool

	wg sync.WaitGroup
}

// New creates a started Scheduler.
func New(cfg Config) *Scheduler {
	if cfg.Carriers <= 0 {
		cfg.Carriers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Scheduler{
		slots:  make(chan struct{}, cfg.Carriers),
		logger: cfg.Logger,
	}
	s.logger.Debug("scheduler started", "carriers", cfg.Carriers)
	return s
}

// Submit registers fn as a new task and returns its handle. The task's
// context derives from ctx: cancelling ctx cancels the task cooperatively.
// Submit after Shutdown fails with ErrClosed.
func (s *Scheduler) Submit(ctx context.Context, fn Func, opts ...Option) (*Handle, error) {
	if fn == nil {
		return nil, fmt.Errorf("submit: nil task func")
	}
	var tc taskConfig
	for _, opt := range opts {
		opt(&tc)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, gserr.ErrClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	var taskCtx context.Context
	var cancel context.CancelFunc
	if !tc.deadline.IsZero() {
		taskCtx, cancel = context.WithDeadline(ctx, tc.deadline)
	} else {
		taskCtx, cancel = context.WithCancel(ctx)
	}

	h := newHandle(cancel)
	metrics.TasksSubmitted.Inc()

	go s.run(taskCtx, cancel, h, fn)
	return h, nil
}

func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc, h *Handle, fn Func) {
	defer s.wg.Done()
	defer cancel()

	// Wait for a carrier slot. Cancellation while Pending wins.
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		h.finish(nil, ctx.Err())
		if h.State() == StateCancelled {
			metrics.TasksCancelled.Inc()
		}
		return
	}

	if !h.transition(StatePending, StateRunning) {
		// Cancelled between submit and slot acquisition.
		<-s.slots
		metrics.TasksCancelled.Inc()
		return
	}

	tc := &TaskContext{sched: s, h: h, ctx: ctx, holding: true}
	result, err := s.runBody(tc, fn)
	if tc.holding {
		<-s.slots
	}
	h.finish(result, err)

	if h.State() == StateCancelled {
		metrics.TasksCancelled.Inc()
	}
}

func (s *Scheduler) runBody(tc *TaskContext, fn Func) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "task_id", tc.h.ID(), "panic", r)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(tc)
}

// Shutdown stops accepting new tasks and waits for in-flight tasks to reach
// a terminal state, or for ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Debug("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler shutdown timed out")
		return ctx.Err()
	}
}
