// Package metric provides Prometheus metrics for the script loader.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry and HTTP handler
//   - loader.go: load results, injections, in-flight loads, latency
//   - page.go: page fetches and content cache hits
//   - collector.go: registry size collector
//
// Metrics are exposed at /metrics in Prometheus format. Every recorder is
// nil-safe so library users can run without metrics.
package metric
