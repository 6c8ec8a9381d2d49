package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PageMetrics records the headless page fetcher.
type PageMetrics struct {
	fetches   *prometheus.CounterVec
	bytes     prometheus.Counter
	cacheHits *prometheus.CounterVec
}

// NewPageMetrics creates page metrics and registers them with reg.
func NewPageMetrics(reg prometheus.Registerer) *PageMetrics {
	m := &PageMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "page",
			Name:      "fetches_total",
			Help:      "Script fetches by HTTP status code (0 = transport failure)",
		}, []string{"code"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "page",
			Name:      "fetched_bytes_total",
			Help:      "Decoded script bytes received",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "page",
			Name:      "cache_lookups_total",
			Help:      "Content cache lookups by result (hit, revalidated, miss)",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.fetches, m.bytes, m.cacheHits)
	}
	return m
}

// ObserveFetch records one HTTP round trip.
func (m *PageMetrics) ObserveFetch(statusCode int, decodedBytes int) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	if decodedBytes > 0 {
		m.bytes.Add(float64(decodedBytes))
	}
}

// ObserveCache records a content cache lookup.
func (m *PageMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(result).Inc()
}
