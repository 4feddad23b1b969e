// Package offload runs blocking, CPU-bound work on a bounded pool of worker
// goroutines so the cooperative scheduler is never stalled. Results are
// posted back into the scheduler, which resumes the awaiting task.
package offload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	gserr "genserve/internal/errors"
	"genserve/internal/metrics"
	"genserve/internal/sched"
)

// WorkFunc is the blocking computation. It must be pure with respect to the
// pool: no internal concurrency, no shared mutable state.
type WorkFunc func(payload any) (any, error)

// WorkItem describes one unit of blocking work. It is immutable once
// submitted; ownership transfers to the pool until a result is produced.
type WorkItem struct {
	ID      uuid.UUID
	Payload any
	Fn      WorkFunc
}

// Config configures a Pool.
type Config struct {
	// Workers is the number of worker goroutines. Default runtime.NumCPU().
	Workers int
	// QueueCapacity bounds how many items may wait beyond the workers
	// currently computing. A submission past the bound fails immediately
	// with ErrPoolSaturated rather than queuing unboundedly.
	QueueCapacity int
	Logger        *slog.Logger
}

type job struct {
	item     WorkItem
	resultCh chan sched.Result
}

// Pool is a bounded set of worker threads executing WorkItems FIFO.
// Each Pool has an explicit lifecycle; independent pools may coexist.
type Pool struct {
	workers int
	queue   chan job
	sched   *sched.Scheduler
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool

	wg sync.WaitGroup
}

// NewPool creates a Pool bound to the given scheduler. Call Start before
// submitting.
func NewPool(s *sched.Scheduler, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueCapacity < 0 {
		cfg.QueueCapacity = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pool{
		workers: cfg.Workers,
		queue:   make(chan job, cfg.QueueCapacity),
		sched:   s,
		logger:  cfg.Logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i + 1)
	}
	p.logger.Info("offload pool started", "workers", p.workers, "queue_capacity", cap(p.queue))
}

// Submit enqueues item and returns a scheduler handle for its result. The
// handle is awaited through the scheduler, never blocked on directly. If
// the queue is at capacity the submission fails immediately with
// ErrPoolSaturated. If timeout elapses before a worker finishes, the
// awaiting task resumes with ErrWorkerTimeout; the worker itself keeps
// running until the work function returns naturally.
func (p *Pool) Submit(ctx context.Context, item WorkItem, timeout time.Duration) (*sched.Handle, error) {
	if item.Fn == nil {
		return nil, fmt.Errorf("submit: nil work func")
	}
	if timeout < 0 {
		return nil, gserr.ErrInvalidTimeout
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, gserr.ErrClosed
	}
	// Buffered to one so a worker finishing after the waiter gave up never
	// blocks; the abandoned result is simply dropped.
	j := job{item: item, resultCh: make(chan sched.Result, 1)}
	select {
	case p.queue <- j:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		metrics.OffloadSaturated.Inc()
		p.logger.Warn("offload submission rejected", "work_id", item.ID)
		return nil, gserr.ErrPoolSaturated
	}

	metrics.OffloadSubmissions.Inc()

	h, err := p.sched.Submit(ctx, func(tc *sched.TaskContext) (any, error) {
		result, err := tc.AwaitResult(j.resultCh, timeout)
		if err != nil {
			if errors.Is(err, gserr.ErrWorkerTimeout) {
				metrics.OffloadTimeouts.Inc()
				p.logger.Warn("offload result abandoned", "work_id", item.ID, "timeout", timeout)
			}
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit await task: %w", err)
	}
	return h, nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for j := range p.queue {
		start := time.Now()
		value, err := p.execute(j.item)
		metrics.ComputeDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			p.logger.Error("offload work failed", "worker_id", id, "work_id", j.item.ID, "error", err)
		} else {
			p.logger.Debug("offload work completed", "worker_id", id, "work_id", j.item.ID, "duration", time.Since(start))
		}
		j.resultCh <- sched.Result{Value: value, Err: err}
	}
}

func (p *Pool) execute(item WorkItem) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", gserr.ErrWorkerPanic, r)
		}
	}()
	return item.Fn(item.Payload)
}

// Shutdown stops accepting work and waits for the workers to drain the
// queue, or for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("offload pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("offload pool shutdown timed out")
		return ctx.Err()
	}
}
