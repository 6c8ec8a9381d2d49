package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load result labels.
const (
	ResultLoaded     = "loaded"
	ResultCached     = "cached"
	ResultSuppressed = "suppressed"
	ResultFailed     = "failed"
	ResultAborted    = "aborted"
	ResultCancelled  = "cancelled"
	ResultInvalid    = "invalid"
)

// LoaderMetrics records the single-load and batch controllers.
type LoaderMetrics struct {
	loads      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	injections prometheus.Counter
	joins      prometheus.Counter
	inflight   prometheus.Gauge
	batches    *prometheus.CounterVec
}

// NewLoaderMetrics creates loader metrics and registers them with reg.
func NewLoaderMetrics(reg prometheus.Registerer) *LoaderMetrics {
	m := &LoaderMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "loader",
			Name:      "loads_total",
			Help:      "Script load requests by terminal result",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "loader",
			Name:      "load_duration_seconds",
			Help:      "Time from request start to terminal result",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"result"}),
		injections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "loader",
			Name:      "injections_total",
			Help:      "Script elements attached to the page",
		}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "loader",
			Name:      "inflight_joins_total",
			Help:      "Requests that joined an already pending load for the same name",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "loader",
			Name:      "inflight",
			Help:      "Attached script elements waiting for a terminal event",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "loader",
			Name:      "batches_total",
			Help:      "Batch loads by result",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.loads, m.duration, m.injections, m.joins, m.inflight, m.batches)
	}
	return m
}

// ObserveLoad records a terminal result and its latency.
func (m *LoaderMetrics) ObserveLoad(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// Injected records an attached element.
func (m *LoaderMetrics) Injected() {
	if m == nil {
		return
	}
	m.injections.Inc()
	m.inflight.Inc()
}

// Settled records a terminal event for an attached element.
func (m *LoaderMetrics) Settled() {
	if m == nil {
		return
	}
	m.inflight.Dec()
}

// Joined records a request that reused a pending flight.
func (m *LoaderMetrics) Joined() {
	if m == nil {
		return
	}
	m.joins.Inc()
}

// ObserveBatch records a batch result ("ok" or "failed").
func (m *LoaderMetrics) ObserveBatch(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.batches.WithLabelValues(result).Inc()
}
