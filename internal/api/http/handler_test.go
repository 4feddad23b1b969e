package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"genserve/internal/domain"
	gserr "genserve/internal/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockOrchestrator struct {
	resp domain.Response
	err  error
}

func (m *mockOrchestrator) HandleRequest(ctx context.Context, req domain.Request) (domain.Response, error) {
	return m.resp, m.err
}

func postGenerate(t *testing.T, handler *GenerateHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	bodyBytes, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()
	handler.Generate(w, req)
	return w
}

func TestGenerateHandler_Success(t *testing.T) {
	orch := &mockOrchestrator{resp: domain.Response{
		Content:   "generated text",
		Tokens:    2,
		CreatedAt: time.Now().UTC(),
	}}
	handler := NewGenerateHandler(orch, newTestLogger())

	w := postGenerate(t, handler, map[string]any{"prompt": "hello", "temperature": 0.7})

	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "generated text", resp.Content)
	require.Equal(t, 2, resp.Tokens)
	require.Nil(t, resp.Error)
}

func TestGenerateHandler_InvalidBody(t *testing.T) {
	handler := NewGenerateHandler(&mockOrchestrator{}, newTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	handler.Generate(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHandler_ValidationFailure(t *testing.T) {
	handler := NewGenerateHandler(&mockOrchestrator{}, newTestLogger())

	// Missing prompt.
	w := postGenerate(t, handler, map[string]any{"temperature": 0.7})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Temperature out of range.
	w = postGenerate(t, handler, map[string]any{"prompt": "x", "temperature": 3.5})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHandler_FailureKindStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		kind       domain.FailureKind
		wantStatus int
	}{
		{"pool saturated", domain.FailurePoolSaturated, http.StatusServiceUnavailable},
		{"worker timeout", domain.FailureWorkerTimeout, http.StatusGatewayTimeout},
		{"worker exception", domain.FailureWorkerException, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &mockOrchestrator{resp: domain.Response{
				CreatedAt: time.Now().UTC(),
				Error:     &domain.ErrorInfo{Kind: tt.kind, Message: "nope"},
			}}
			handler := NewGenerateHandler(orch, newTestLogger())

			w := postGenerate(t, handler, map[string]any{"prompt": "hello"})
			require.Equal(t, tt.wantStatus, w.Code)

			var resp domain.Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.NotNil(t, resp.Error)
			require.Equal(t, tt.kind, resp.Error.Kind)
		})
	}
}

func TestGenerateHandler_CancelledWritesNothing(t *testing.T) {
	orch := &mockOrchestrator{err: gserr.ErrCancelled}
	handler := NewGenerateHandler(orch, newTestLogger())

	w := postGenerate(t, handler, map[string]any{"prompt": "hello"})

	// No structured body for a caller that is gone.
	require.Equal(t, http.StatusOK, w.Code) // recorder default, nothing written
	require.Zero(t, w.Body.Len())
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := NewRouter(&mockOrchestrator{}, newTestLogger())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
