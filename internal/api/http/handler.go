package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-playground/validator/v10"

	"genserve/internal/domain"
	gserr "genserve/internal/errors"
)

// OrchestratorI is the request-level entry point consumed by the handler.
type OrchestratorI interface {
	HandleRequest(ctx context.Context, req domain.Request) (domain.Response, error)
}

// GenerateHandler handles HTTP requests for text generation.
type GenerateHandler struct {
	orchestrator OrchestratorI
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewGenerateHandler creates a GenerateHandler with the provided
// orchestrator and logger.
func NewGenerateHandler(o OrchestratorI, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		orchestrator: o,
		validator:    validator.New(),
		logger:       logger,
	}
}

// Generate handles the HTTP POST /generate request.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.orchestrator.HandleRequest(ctx, domain.Request{
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		ClientIP:    r.RemoteAddr,
	})
	if err != nil {
		if errors.Is(err, gserr.ErrCancelled) {
			// Client went away; there is nobody to answer.
			h.logger.Debug("request cancelled", "remote", r.RemoteAddr)
			return
		}
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if resp.Error != nil {
		writeJSON(w, statusFor(resp.Error.Kind), resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps a designed failure kind to an HTTP status.
func statusFor(kind domain.FailureKind) int {
	switch kind {
	case domain.FailurePoolSaturated:
		return http.StatusServiceUnavailable
	case domain.FailureWorkerTimeout, domain.FailureTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
