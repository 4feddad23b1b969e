// Package orchestrator composes one request end to end: derive the fetch
// set, aggregate the fetched content, offload the blocking generation, and
// assemble the response. It is stateless across requests.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"genserve/internal/domain"
	gserr "genserve/internal/errors"
	"genserve/internal/fetch"
	"genserve/internal/metrics"
	"genserve/internal/offload"
	"genserve/internal/sched"
	"genserve/internal/textgen"
	"genserve/internal/validation"
)

// Config carries the orchestrator's timeouts and limits, supplied by the
// serving boundary.
type Config struct {
	FetchTimeout     time.Duration
	FetchItemTimeout time.Duration
	ComputeTimeout   time.Duration
	MaxURLsPerPrompt int

	// URLFilter decides which extracted URLs are fetched. Defaults to
	// validation.IsSafeURL.
	URLFilter func(string) bool
}

// Orchestrator is the single entry point consumed by the serving boundary.
type Orchestrator struct {
	sched      *sched.Scheduler
	aggregator *fetch.Aggregator
	pool       *offload.Pool
	generator  textgen.Generator
	cfg        Config
	logger     *slog.Logger
}

// New wires an Orchestrator. All collaborators are required.
func New(s *sched.Scheduler, a *fetch.Aggregator, p *offload.Pool, g textgen.Generator, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.MaxURLsPerPrompt <= 0 {
		cfg.MaxURLsPerPrompt = 5
	}
	if cfg.URLFilter == nil {
		cfg.URLFilter = validation.IsSafeURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sched:      s,
		aggregator: a,
		pool:       p,
		generator:  g,
		cfg:        cfg,
		logger:     logger,
	}
}

type generateInput struct {
	prompt      string
	temperature float64
}

// HandleRequest runs the fixed pipeline for one request. Designed failures
// (offload errors, malformed input) come back as an error Response carrying
// the failure kind; only request-level cancellation terminates the call
// itself, with ErrCancelled and no Response.
func (o *Orchestrator) HandleRequest(ctx context.Context, req domain.Request) (domain.Response, error) {
	metrics.RequestsTotal.Inc()

	h, err := o.sched.Submit(ctx, func(tc *sched.TaskContext) (any, error) {
		return o.pipeline(tc, req)
	})
	if err != nil {
		return domain.Response{}, fmt.Errorf("submit request task: %w", err)
	}

	result, err := h.Await(ctx)
	if err != nil {
		if errors.Is(err, gserr.ErrCancelled) || errors.Is(err, context.Canceled) {
			h.Cancel()
			return domain.Response{}, gserr.ErrCancelled
		}
		metrics.RequestsFailed.Inc()
		return o.errorResponse(req, err), nil
	}

	resp, ok := result.(domain.Response)
	if !ok {
		metrics.RequestsFailed.Inc()
		return o.errorResponse(req, fmt.Errorf("unexpected pipeline result %T", result)), nil
	}
	if resp.Error != nil {
		metrics.RequestsFailed.Inc()
	}
	return resp, nil
}

// pipeline is the straight-line composition with two suspension points:
// awaiting the fetch aggregate and awaiting the offload result.
func (o *Orchestrator) pipeline(tc *sched.TaskContext, req domain.Request) (any, error) {
	specs := o.deriveFetchSet(req)

	aggregated, err := tc.AwaitIO(func(ioCtx context.Context) (any, error) {
		result, err := o.aggregator.FetchAll(ioCtx, specs, o.cfg.FetchTimeout)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	agg := aggregated.(fetch.AggregateResult)

	o.logger.Debug("fetch set aggregated",
		"urls", len(specs),
		"successes", len(agg.Successes),
		"failures", len(agg.Failures),
	)

	input := o.combine(req, agg)

	work := offload.WorkItem{
		Payload: input,
		Fn: func(payload any) (any, error) {
			in := payload.(generateInput)
			return o.generator.Generate(in.prompt, in.temperature)
		},
	}
	wh, err := o.pool.Submit(tc.Context(), work, o.cfg.ComputeTimeout)
	if err != nil {
		return o.errorResponse(req, err), nil
	}

	generated, err := tc.Await(wh)
	if err != nil {
		if errors.Is(err, gserr.ErrCancelled) || errors.Is(err, context.Canceled) {
			return nil, gserr.ErrCancelled
		}
		return o.errorResponse(req, err), nil
	}

	content := generated.(string)
	return domain.Response{
		Content:   content,
		Tokens:    textgen.CountTokens(content),
		IP:        req.ClientIP,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// deriveFetchSet is pure: it extracts fetchable URLs from the prompt.
func (o *Orchestrator) deriveFetchSet(req domain.Request) []fetch.Spec {
	var specs []fetch.Spec
	for _, u := range validation.ExtractURLsFiltered(req.Prompt, o.cfg.MaxURLsPerPrompt, o.cfg.URLFilter) {
		specs = append(specs, fetch.Spec{URL: u, Timeout: o.cfg.FetchItemTimeout})
	}
	return specs
}

// combine is pure: it folds the fetched payloads into the generation input.
// Fetch failures were already absorbed by the aggregator; only the
// successful payloads contribute.
func (o *Orchestrator) combine(req domain.Request, agg fetch.AggregateResult) generateInput {
	parts := make([]string, 0, len(agg.Successes)+1)
	parts = append(parts, req.Prompt)
	for _, body := range agg.Successes {
		parts = append(parts, string(body))
	}
	return generateInput{
		prompt:      strings.Join(parts, " "),
		temperature: req.Temperature,
	}
}

func (o *Orchestrator) errorResponse(req domain.Request, err error) domain.Response {
	kind := domain.KindOf(err)
	o.logger.Error("request failed", "kind", kind, "error", err)
	return domain.Response{
		IP:        req.ClientIP,
		CreatedAt: time.Now().UTC(),
		Error: &domain.ErrorInfo{
			Kind:    kind,
			Message: err.Error(),
		},
	}
}
