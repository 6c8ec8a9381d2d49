package handler

import (
	"time"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// LoadScriptRequest is the request body for POST /scripts/load and one
// element of a batch.
type LoadScriptRequest struct {
	Name      string `json:"name"`
	Src       string `json:"src"`
	Integrity string `json:"integrity,omitempty"`
	Async     *bool  `json:"async,omitempty"`
	SkipError *bool  `json:"skip_error,omitempty"`
	SkipAbort *bool  `json:"skip_abort,omitempty"`
}

// ScriptRef converts the request to a script reference.
func (r LoadScriptRequest) ScriptRef() domain.ScriptRef {
	return domain.ScriptRef{
		Name:      r.Name,
		Src:       r.Src,
		Integrity: r.Integrity,
		Options: domain.Options{
			Async:     r.Async,
			SkipError: r.SkipError,
			SkipAbort: r.SkipAbort,
		},
	}
}

// BatchLoadRequest is the request body for POST /scripts/batch.
type BatchLoadRequest struct {
	Scripts []LoadScriptRequest `json:"scripts"`
}

// ScriptResponse represents an outcome in API responses.
type ScriptResponse struct {
	Name    string `json:"name"`
	Src     string `json:"src"`
	Fetched bool   `json:"fetched"`
	Loaded  bool   `json:"loaded"`
	Module  any    `json:"module,omitempty"`
}

// BatchLoadResponse is the response body for POST /scripts/batch.
type BatchLoadResponse struct {
	Scripts []ScriptResponse `json:"scripts"`
}

// ListScriptsResponse is the response body for GET /scripts.
type ListScriptsResponse struct {
	Items []ScriptResponse `json:"items"`
	Total int              `json:"total"`
}

// ScriptStatusResponse is the response body for GET /scripts/{name}/status.
type ScriptStatusResponse struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
	Loaded bool   `json:"loaded"`
	State  string `json:"state"`
}

func outcomeToResponse(o *domain.Outcome) ScriptResponse {
	return ScriptResponse{
		Name:    o.Name,
		Src:     o.Src,
		Fetched: o.Fetched,
		Loaded:  o.Loaded,
		Module:  o.Module,
	}
}

func outcomesToResponse(outcomes []*domain.Outcome) []ScriptResponse {
	items := make([]ScriptResponse, 0, len(outcomes))
	for _, o := range outcomes {
		items = append(items, outcomeToResponse(o))
	}
	return items
}
