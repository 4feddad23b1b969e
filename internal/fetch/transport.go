package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gserr "genserve/internal/errors"
)

// Transport issues one non-blocking I/O operation per fetch. Errors must be
// classifiable: wrap ErrConnection for transport failures and ErrProtocol
// for unusable responses; deadline errors are left as context errors.
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPTransport fetches over HTTP with a bounded response size.
type HTTPTransport struct {
	client  *http.Client
	maxBody int64
}

// NewHTTPTransport creates an HTTPTransport. maxBody bounds the accepted
// response size in bytes; zero means 4 MiB.
func NewHTTPTransport(timeout time.Duration, maxBody int64) *HTTPTransport {
	if maxBody <= 0 {
		maxBody = 4 << 20
	}
	return &HTTPTransport{
		client:  &http.Client{Timeout: timeout},
		maxBody: maxBody,
	}
}

// Fetch performs a GET and returns the response body.
func (t *HTTPTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", gserr.ErrConnection, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", gserr.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %s", gserr.ErrProtocol, resp.Status)
	}

	limited := &io.LimitedReader{R: resp.Body, N: t.maxBody + 1}
	body, err := io.ReadAll(limited)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read body: %v", gserr.ErrConnection, err)
	}
	if int64(len(body)) > t.maxBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", gserr.ErrProtocol, t.maxBody)
	}
	return body, nil
}
