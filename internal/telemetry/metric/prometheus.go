package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "scriptloader"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	Loader *LoaderMetrics
	Page   *PageMetrics
}

// NewRegistry creates a registry with Go runtime, process, loader and page
// metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:    reg,
		Loader: NewLoaderMetrics(reg),
		Page:   NewPageMetrics(reg),
	}
}

// Prometheus returns the underlying registry for components that register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		Registry: r.reg,
	})
}
