package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
	"github.com/yndnr/scriptloader-go/pkg/cmap"
)

type contextKey string

// ContextKeyStartTime is the context key for request start time.
const ContextKeyStartTime contextKey = "start_time"

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware runs
// first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID adds a unique request ID to each request and to the request
// logger.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = "req-" + strings.ToLower(ulid.Make().String())
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimitSweepInterval is how often idle client limiters are dropped.
const rateLimitSweepInterval = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimit applies per-client-IP token bucket limiting.
func RateLimit(rps float64, burst int) Middleware {
	clients := cmap.New[*clientLimiter]()
	var lastSweep atomic.Int64
	lastSweep.Store(time.Now().UnixNano())

	limiterFor := func(ip string, now time.Time) *clientLimiter {
		var cl *clientLimiter
		clients.Update(ip, func(cur *clientLimiter, exists bool) (*clientLimiter, bool) {
			if exists {
				cl = cur
				return cur, false
			}
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			return cl, true
		})
		cl.lastSeen.Store(now.UnixNano())
		return cl
	}

	sweep := func(now time.Time) {
		last := lastSweep.Load()
		if now.UnixNano()-last < int64(rateLimitSweepInterval) || !lastSweep.CompareAndSwap(last, now.UnixNano()) {
			return
		}
		var idle []string
		clients.Range(func(ip string, cl *clientLimiter) bool {
			if now.UnixNano()-cl.lastSeen.Load() > int64(rateLimitSweepInterval) {
				idle = append(idle, ip)
			}
			return true
		})
		for _, ip := range idle {
			clients.Delete(ip)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			sweep(now)

			if !limiterFor(getClientIP(r), now).limiter.AllowN(now, 1) {
				w.Header().Set("Retry-After", "1")
				writeError(w, r, http.StatusTooManyRequests, domain.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs one line per request.
func Audit(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			startTime, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				startTime = time.Now()
			}

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(startTime).Milliseconds(),
				"client_ip", getClientIP(r),
			}

			switch {
			case wrapped.statusCode >= 500:
				l.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				l.Warn("request completed with client error", attrs...)
			default:
				l.Info("request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					l.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", err,
						"path", r.URL.Path,
					)
					writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// writeError writes a middleware error in the handler envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, err *domain.DomainError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", err.Code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       err.Code,
		"message":    err.Message,
		"request_id": logger.RequestIDFromContext(r.Context()),
		"timestamp":  time.Now().UnixMilli(),
	})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// net.SplitHostPort handles IPv6 addresses like [::1]:8080.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
