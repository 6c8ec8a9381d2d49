package httpserver

import (
	"net/http"

	"github.com/yndnr/scriptloader-go/internal/server/httpserver/handler"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Scripts serves the script endpoints.
	Scripts handler.ScriptService

	// Ready is the readiness probe for GET /ready.
	Ready handler.ReadyFunc

	// Metrics serves GET /metrics; nil disables the endpoint.
	Metrics http.Handler

	// Logger for request logging.
	Logger logger.Logger

	// RateLimitRPS is the sustained per-IP request rate; zero disables
	// limiting.
	RateLimitRPS float64

	// RateLimitBurst is the per-IP bucket size.
	RateLimitBurst int

	// MaxBatchSize limits POST /scripts/batch.
	MaxBatchSize int

	// EnableAudit enables one log line per request.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		MaxBatchSize:   handler.DefaultMaxBatchSize,
		EnableAudit:    true,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Nop()
	}

	opts := []handler.Option{handler.WithReadyCheck(cfg.Ready)}
	if cfg.MaxBatchSize > 0 {
		opts = append(opts, handler.WithMaxBatchSize(cfg.MaxBatchSize))
	}
	h := handler.New(cfg.Scripts, l, opts...)

	// Probes skip rate limiting and auditing.
	probe := Chain(h, Recover(l), RequestID())

	api := []Middleware{Recover(l), RequestID()}
	if cfg.RateLimitRPS > 0 {
		api = append(api, RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	if cfg.EnableAudit {
		api = append(api, Audit(l))
	}
	scripts := Chain(h, api...)

	mux := http.NewServeMux()
	mux.Handle("GET /health", probe)
	mux.Handle("GET /ready", probe)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, Recover(l)))
	}

	mux.Handle("POST /scripts/load", scripts)
	mux.Handle("POST /scripts/batch", scripts)
	mux.Handle("GET /scripts", scripts)
	mux.Handle("GET /scripts/{name}", scripts)
	mux.Handle("GET /scripts/{name}/status", scripts)

	return mux
}
