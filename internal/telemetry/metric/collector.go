package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SignalStats is a snapshot of the accept handshake counters.
type SignalStats struct {
	Arms       uint64
	Sets       uint64
	Violations uint64
	Doubled    uint64
}

// SignalStatsFunc returns the current handshake counters.
type SignalStatsFunc func() SignalStats

// Collector exports the handshake counters at scrape time.
type Collector struct {
	stats SignalStatsFunc

	arms       *prometheus.Desc
	sets       *prometheus.Desc
	violations *prometheus.Desc
	doubled    *prometheus.Desc
}

// NewCollector creates a collector reading from stats.
func NewCollector(stats SignalStatsFunc) *Collector {
	return &Collector{
		stats: stats,
		arms: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "handshake", "arms_total"),
			"Times the accept loop armed the handshake.", nil, nil),
		sets: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "handshake", "sets_total"),
			"Times an accept callback set the handshake.", nil, nil),
		violations: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "handshake", "violations_total"),
			"Arms issued while the previous arm was never waited on.", nil, nil),
		doubled: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "handshake", "doubled_total"),
			"Sets that found the handshake slot already full.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.arms
	ch <- c.sets
	ch <- c.violations
	ch <- c.doubled
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.arms, prometheus.CounterValue, float64(s.Arms))
	ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue, float64(s.Sets))
	ch <- prometheus.MustNewConstMetric(c.violations, prometheus.CounterValue, float64(s.Violations))
	ch <- prometheus.MustNewConstMetric(c.doubled, prometheus.CounterValue, float64(s.Doubled))
}

// WatchSignal registers a Collector for stats with the registry.
func (r *Registry) WatchSignal(stats SignalStatsFunc) error {
	if r == nil {
		return nil
	}
	return r.register(NewCollector(stats))
}
