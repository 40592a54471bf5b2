package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds per-tier Prometheus metrics, labeled by tier name.
type Metrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	entries   *prometheus.GaugeVec
}

// NewMetrics creates and registers cache metrics on the given registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstore_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"tier"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstore_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"tier"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstore_cache_evictions_total",
				Help: "Total number of expired entries removed",
			},
			[]string{"tier"},
		),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetstore_cache_entries",
				Help: "Current number of cache entries",
			},
			[]string{"tier"},
		),
	}

	registry.MustRegister(m.hits, m.misses, m.evictions, m.entries)
	return m
}
