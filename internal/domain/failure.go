package domain

import (
	"context"
	"errors"

	gserr "genserve/internal/errors"
)

// FailureKind classifies every designed failure path in the core.
type FailureKind string

const (
	FailureTimeout         FailureKind = "timeout"
	FailureConnectionError FailureKind = "connection_error"
	FailureProtocolError   FailureKind = "protocol_error"
	FailureWorkerException FailureKind = "worker_exception"
	FailureWorkerTimeout   FailureKind = "worker_timeout"
	FailurePoolSaturated   FailureKind = "pool_saturated"
	FailureCancelled       FailureKind = "cancelled"
)

// KindOf maps an error from the core onto its failure kind.
// Unrecognized errors are reported as worker_exception: by the propagation
// policy nothing may cross the orchestrator boundary unclassified.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, gserr.ErrWorkerTimeout):
		return FailureWorkerTimeout
	case errors.Is(err, gserr.ErrPoolSaturated):
		return FailurePoolSaturated
	case errors.Is(err, gserr.ErrWorkerPanic):
		return FailureWorkerException
	case errors.Is(err, gserr.ErrCancelled), errors.Is(err, context.Canceled):
		return FailureCancelled
	case errors.Is(err, gserr.ErrProtocol):
		return FailureProtocolError
	case errors.Is(err, gserr.ErrConnection):
		return FailureConnectionError
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	default:
		return FailureWorkerException
	}
}
