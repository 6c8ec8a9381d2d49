// Package httpserver provides the HTTP API of scriptloader-server using
// stdlib net/http:
//
//   - Script endpoints: /scripts/load, /scripts/batch, /scripts, /scripts/{name}
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware chain: Recover, RequestID, RateLimit, Audit.
package httpserver
