package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the cross-request result store.
type Metrics struct {
	HitsTotal   prometheus.Counter
	MissesTotal prometheus.Counter
	Size        prometheus.Gauge
}

// NewMetrics creates and registers result-store metrics.
//
// Registration happens once per process; repeated calls return the same
// instance to avoid duplicate-collector panics.
//
// Metrics:
//   - apptd_cache_hits_total - count of cache hits
//   - apptd_cache_misses_total - count of cache misses (expired counts as miss)
//   - apptd_cache_size - current number of stored stage results
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HitsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "apptd_cache_hits_total",
				Help: "Count of cross-request cache hits.",
			}),
			MissesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "apptd_cache_misses_total",
				Help: "Count of cross-request cache misses, including expired entries.",
			}),
			Size: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "apptd_cache_size",
				Help: "Current number of stored stage results.",
			}),
		}
	})
	return globalMetrics
}

// RecordHit increments the hit counter.
func (m *Metrics) RecordHit() {
	if m == nil {
		return
	}
	m.HitsTotal.Inc()
}

// RecordMiss increments the miss counter.
func (m *Metrics) RecordMiss() {
	if m == nil {
		return
	}
	m.MissesTotal.Inc()
}

// SetSize updates the size gauge.
func (m *Metrics) SetSize(n int) {
	if m == nil {
		return
	}
	m.Size.Set(float64(n))
}
