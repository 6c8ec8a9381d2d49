package metric

import "github.com/prometheus/client_golang/prometheus"

// RegistryStats reports the current registry size.
type RegistryStats func() (resolved, pending int)

// Collector exposes load registry sizes at scrape time.
type Collector struct {
	stats    RegistryStats
	resolved *prometheus.Desc
	pending  *prometheus.Desc
}

// NewCollector creates a collector reading sizes from stats.
func NewCollector(stats RegistryStats) *Collector {
	return &Collector{
		stats: stats,
		resolved: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "registry", "entries"),
			"Scripts with a recorded outcome",
			nil, nil,
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "registry", "pending"),
			"Script names with a load in flight",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.resolved
	ch <- c.pending
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	resolved, pending := c.stats()
	ch <- prometheus.MustNewConstMetric(c.resolved, prometheus.GaugeValue, float64(resolved))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(pending))
}
