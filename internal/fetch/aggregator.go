// Package fetch issues a set of logical I/O tasks through the scheduler and
// folds their outcomes into one aggregate result with a partial-failure
// policy: individual fetch failures become data, never an error.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"genserve/internal/domain"
	gserr "genserve/internal/errors"
	"genserve/internal/metrics"
	"genserve/internal/sched"
)

// Spec is one logical I/O request: a target URL and a per-item timeout.
type Spec struct {
	URL     string
	Timeout time.Duration
}

// Failure records one failed fetch.
type Failure struct {
	URL  string
	Kind domain.FailureKind
	Err  error
}

// AggregateResult is the fold of all fetch outcomes for one request.
// len(Successes) + len(Failures) == number of input specs, always; both
// slices preserve input order.
type AggregateResult struct {
	Successes [][]byte
	Failures  []Failure
}

// Aggregator runs fetch sets through the scheduler.
type Aggregator struct {
	sched     *sched.Scheduler
	transport Transport
	logger    *slog.Logger
}

// NewAggregator creates an Aggregator using the given scheduler and
// transport.
func NewAggregator(s *sched.Scheduler, t Transport, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{sched: s, transport: t, logger: logger}
}

type outcome struct {
	body []byte
	err  error
}

// FetchAll fetches all specs concurrently and waits for every one to reach
// a terminal state or for overall to elapse, whichever comes first. Items
// still in flight at the overall deadline are cancelled and recorded as
// timeouts. Item failures never fail the call; only malformed input does,
// synchronously, before any task is submitted. Cancellation of ctx aborts
// the whole call with ErrCancelled and no result.
func (a *Aggregator) FetchAll(ctx context.Context, specs []Spec, overall time.Duration) (AggregateResult, error) {
	if overall < 0 {
		return AggregateResult{}, gserr.ErrInvalidTimeout
	}
	for _, spec := range specs {
		if spec.Timeout < 0 {
			return AggregateResult{}, gserr.ErrInvalidTimeout
		}
	}
	if len(specs) == 0 {
		return AggregateResult{}, nil
	}

	octx, cancel := context.WithTimeout(ctx, overall)
	defer cancel()

	handles := make([]*sched.Handle, len(specs))
	for i, spec := range specs {
		spec := spec
		h, err := a.sched.Submit(octx, func(tc *sched.TaskContext) (any, error) {
			return tc.AwaitIO(func(ioCtx context.Context) (any, error) {
				ictx := ioCtx
				if spec.Timeout > 0 {
					var icancel context.CancelFunc
					ictx, icancel = context.WithTimeout(ioCtx, spec.Timeout)
					defer icancel()
				}
				start := time.Now()
				body, err := a.transport.Fetch(ictx, spec.URL)
				metrics.FetchDuration.Observe(time.Since(start).Seconds())
				return body, err
			})
		})
		if err != nil {
			return AggregateResult{}, err
		}
		handles[i] = h
		metrics.FetchesTotal.Inc()
	}

	outcomes := make([]outcome, len(specs))
	g := new(errgroup.Group)
	for i, h := range handles {
		i, h := i, h
		g.Go(func() error {
			result, err := h.Await(octx)
			if err != nil && octx.Err() != nil {
				// The overall deadline (or a request-level cancellation)
				// fired while we waited. A result that already arrived
				// still wins; otherwise cancel the in-flight task.
				if late, lateErr, ok := h.TryResult(); ok {
					result, err = late, lateErr
				} else {
					h.Cancel()
					err = octx.Err()
				}
			}
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			body, _ := result.([]byte)
			outcomes[i] = outcome{body: body}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		// Request-level cancellation, not the overall fetch deadline:
		// the call itself terminates without producing a result.
		for _, h := range handles {
			h.Cancel()
		}
		return AggregateResult{}, gserr.ErrCancelled
	}

	return a.fold(specs, outcomes), nil
}

func (a *Aggregator) fold(specs []Spec, outcomes []outcome) AggregateResult {
	var result AggregateResult
	for i, o := range outcomes {
		if o.err == nil {
			result.Successes = append(result.Successes, o.body)
			continue
		}
		kind := fetchKind(o.err)
		metrics.FetchesFailed.WithLabelValues(string(kind)).Inc()
		a.logger.Warn("fetch failed", "url", specs[i].URL, "kind", kind, "error", o.err)
		result.Failures = append(result.Failures, Failure{URL: specs[i].URL, Kind: kind, Err: o.err})
	}
	return result
}

// fetchKind classifies a single fetch error. At the item level only three
// kinds exist: timeout, connection error, protocol error.
func fetchKind(err error) domain.FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, gserr.ErrCancelled), errors.Is(err, context.Canceled):
		return domain.FailureTimeout
	case errors.Is(err, gserr.ErrProtocol):
		return domain.FailureProtocolError
	default:
		return domain.FailureConnectionError
	}
}
