package domain

import "time"

// Request is the orchestrator's input, produced by the serving boundary.
type Request struct {
	Prompt      string
	Temperature float64
	ClientIP    string
}

// ErrorInfo describes a designed failure carried inside a Response.
type ErrorInfo struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Response is the orchestrator's output. Exactly one of Content or Error
// is meaningful; an error Response always carries its failure kind.
type Response struct {
	Content   string     `json:"content,omitempty"`
	Tokens    int        `json:"tokens,omitempty"`
	IP        string     `json:"ip,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

// GenerateRequest is the request body for POST /generate.
type GenerateRequest struct {
	Prompt      string  `json:"prompt" validate:"required,min=1,max=8192"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
}
