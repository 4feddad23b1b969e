package errors

import "errors"

var (
	// ErrInvalidTimeout is returned synchronously for malformed timeout inputs.
	ErrInvalidTimeout = errors.New("timeout must not be negative")

	// ErrPoolSaturated is the backpressure rejection: the offload queue is full.
	ErrPoolSaturated = errors.New("offload pool saturated")

	// ErrWorkerTimeout means the compute deadline elapsed before the worker
	// finished; the result is abandoned, the worker is not interrupted.
	ErrWorkerTimeout = errors.New("offload work timed out")

	// ErrWorkerPanic means the computation provider panicked during offload.
	ErrWorkerPanic = errors.New("offload work panicked")

	// ErrCancelled is observed by waiters of a cooperatively cancelled task.
	ErrCancelled = errors.New("task cancelled")

	// ErrClosed is returned by Submit after scheduler or pool shutdown.
	ErrClosed = errors.New("already shut down")

	// ErrProtocol covers well-formed upstream responses that are unusable
	// (non-2xx status, oversized body).
	ErrProtocol = errors.New("unexpected upstream response")

	// ErrConnection covers transport-level fetch failures.
	ErrConnection = errors.New("upstream connection failed")
)
