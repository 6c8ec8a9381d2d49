package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

// ScriptService is the part of service.Loader the handlers use.
type ScriptService interface {
	LoadScript(ctx context.Context, ref domain.ScriptRef) (*domain.Outcome, error)
	LoadScripts(ctx context.Context, refs ...domain.ScriptRef) ([]*domain.Outcome, error)
	Get(name string) (*domain.Outcome, bool)
	Exists(name string) bool
	IsLoaded(name string) bool
	State(name string) domain.EntryState
	Scripts() []*domain.Outcome
}

// ReadyFunc reports whether the server can accept loads.
type ReadyFunc func() error

// DefaultMaxBodyBytes limits request bodies.
const DefaultMaxBodyBytes = 1 << 20

// DefaultMaxBatchSize limits the number of scripts in one batch request.
const DefaultMaxBatchSize = 256

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	scripts      ScriptService
	ready        ReadyFunc
	logger       logger.Logger
	maxBodyBytes int64
	maxBatchSize int
	mux          *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithReadyCheck sets the readiness probe used by GET /ready.
func WithReadyCheck(fn ReadyFunc) Option {
	return func(h *Handler) {
		h.ready = fn
	}
}

// WithMaxBodyBytes sets the request body limit.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		h.maxBodyBytes = n
	}
}

// WithMaxBatchSize sets the batch size limit.
func WithMaxBatchSize(n int) Option {
	return func(h *Handler) {
		h.maxBatchSize = n
	}
}

// New creates a new Handler.
func New(scripts ScriptService, l logger.Logger, opts ...Option) *Handler {
	if l == nil {
		l = logger.Nop()
	}
	h := &Handler{
		scripts:      scripts,
		logger:       l,
		maxBodyBytes: DefaultMaxBodyBytes,
		maxBatchSize: DefaultMaxBatchSize,
		mux:          http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("POST /scripts/load", h.handleLoadScript)
	h.mux.HandleFunc("POST /scripts/batch", h.handleLoadBatch)
	h.mux.HandleFunc("GET /scripts", h.handleListScripts)
	h.mux.HandleFunc("GET /scripts/{name}", h.handleGetScript)
	h.mux.HandleFunc("GET /scripts/{name}/status", h.handleScriptStatus)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body: "+err.Error(), nil)
		return false
	}
	return true
}

// getRequestID returns the request ID set by the RequestID middleware,
// falling back to the inbound header.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Warn("script request failed", "code", code, "error", err)
		}
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4990"):
		return http.StatusRequestTimeout
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5020"):
		return http.StatusBadGateway
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
