package offload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	gserr "genserve/internal/errors"
	"genserve/internal/sched"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPool(t *testing.T, workers, queueCap int) (*Pool, *sched.Scheduler) {
	t.Helper()
	s := sched.New(sched.Config{Carriers: 2, Logger: newTestLogger()})
	p := NewPool(s, Config{Workers: workers, QueueCapacity: queueCap, Logger: newTestLogger()})
	p.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		p.Shutdown(ctx)
	})
	return p, s
}

func TestPool_SubmitAndAwait(t *testing.T) {
	p, _ := newTestPool(t, 2, 4)

	h, err := p.Submit(context.Background(), WorkItem{
		Payload: 21,
		Fn: func(payload any) (any, error) {
			return payload.(int) * 2, nil
		},
	}, time.Second)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	result, err := h.Await(context.Background())
	if err != nil {
		t.Fatalf("Await error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %v", result)
	}
}

func TestPool_SaturationRejectsExcess(t *testing.T) {
	// Two workers, no queue slots: the third concurrent submission must be
	// rejected immediately, never silently queued.
	p, _ := newTestPool(t, 2, 0)

	running := make(chan struct{}, 2)
	release := make(chan struct{})
	busy := func(any) (any, error) {
		running <- struct{}{}
		<-release
		return nil, nil
	}
	defer close(release)

	h1, err := p.Submit(context.Background(), WorkItem{Fn: busy}, time.Minute)
	if err != nil {
		t.Fatalf("first Submit error: %v", err)
	}
	<-running
	h2, err := p.Submit(context.Background(), WorkItem{Fn: busy}, time.Minute)
	if err != nil {
		t.Fatalf("second Submit error: %v", err)
	}
	<-running

	if _, err := p.Submit(context.Background(), WorkItem{Fn: busy}, time.Minute); !errors.Is(err, gserr.ErrPoolSaturated) {
		t.Fatalf("expected ErrPoolSaturated, got %v", err)
	}

	_ = h1
	_ = h2
}

func TestPool_WorkerTimeoutDoesNotPoisonPool(t *testing.T) {
	p, _ := newTestPool(t, 1, 0)

	slow := make(chan struct{})
	h, err := p.Submit(context.Background(), WorkItem{
		Fn: func(any) (any, error) {
			<-slow
			return "late", nil
		},
	}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if _, err := h.Await(context.Background()); !errors.Is(err, gserr.ErrWorkerTimeout) {
		t.Fatalf("expected ErrWorkerTimeout, got %v", err)
	}

	// Free the worker; a subsequent independent submission must succeed.
	close(slow)

	deadline := time.Now().Add(2 * time.Second)
	for {
		h2, err := p.Submit(context.Background(), WorkItem{
			Fn: func(any) (any, error) { return "ok", nil },
		}, time.Second)
		if errors.Is(err, gserr.ErrPoolSaturated) {
			if time.Now().After(deadline) {
				t.Fatal("pool stayed saturated after timeout")
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		result, err := h2.Await(context.Background())
		if err != nil {
			t.Fatalf("Await error: %v", err)
		}
		if result != "ok" {
			t.Errorf("expected ok, got %v", result)
		}
		return
	}
}

func TestPool_PanicBecomesWorkerException(t *testing.T) {
	p, _ := newTestPool(t, 1, 1)

	h, err := p.Submit(context.Background(), WorkItem{
		Fn: func(any) (any, error) {
			panic("model blew up")
		},
	}, time.Second)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if _, err := h.Await(context.Background()); !errors.Is(err, gserr.ErrWorkerPanic) {
		t.Fatalf("expected ErrWorkerPanic, got %v", err)
	}
}

func TestPool_NegativeTimeoutRejected(t *testing.T) {
	p, _ := newTestPool(t, 1, 1)

	_, err := p.Submit(context.Background(), WorkItem{
		Fn: func(any) (any, error) { return nil, nil },
	}, -time.Second)
	if !errors.Is(err, gserr.ErrInvalidTimeout) {
		t.Fatalf("expected ErrInvalidTimeout, got %v", err)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	s := sched.New(sched.Config{Carriers: 1, Logger: newTestLogger()})
	p := NewPool(s, Config{Workers: 1, QueueCapacity: 1, Logger: newTestLogger()})
	p.Start()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	_, err := p.Submit(context.Background(), WorkItem{
		Fn: func(any) (any, error) { return nil, nil },
	}, time.Second)
	if !errors.Is(err, gserr.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPool_IndependentPoolsCoexist(t *testing.T) {
	p1, _ := newTestPool(t, 1, 0)
	p2, _ := newTestPool(t, 1, 0)

	block := make(chan struct{})
	defer close(block)

	started := make(chan struct{})
	if _, err := p1.Submit(context.Background(), WorkItem{
		Fn: func(any) (any, error) {
			close(started)
			<-block
			return nil, nil
		},
	}, time.Minute); err != nil {
		t.Fatalf("p1 Submit error: %v", err)
	}
	<-started

	// p1 is busy; p2 must be unaffected.
	h, err := p2.Submit(context.Background(), WorkItem{
		Fn: func(any) (any, error) { return "p2", nil },
	}, time.Second)
	if err != nil {
		t.Fatalf("p2 Submit error: %v", err)
	}
	if result, err := h.Await(context.Background()); err != nil || result != "p2" {
		t.Fatalf("p2 work failed: %v %v", result, err)
	}
}
