package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avolpe/searchd/pkg/search"
)

// lookupMetrics is the Prometheus implementation of search.Metrics.
type lookupMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewLookupMetrics creates a Prometheus-backed search.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called); the
// engine treats a nil recorder as a no-op.
func NewLookupMetrics() search.Metrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &lookupMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchd_lookup_operations_total",
				Help: "Total number of lookup operations by mode and outcome",
			},
			[]string{"mode", "outcome"}, // mode: "reread", "cached"
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "searchd_lookup_duration_milliseconds",
				Help: "Duration of lookup operations in milliseconds",
				Buckets: []float64{
					0.01, // 10us - cached hits
					0.05,
					0.1,
					0.5,
					1,
					5,
					10,
					40, // reread target ceiling for large files
					100,
					500,
				},
			},
			[]string{"mode"},
		),
	}
}

func (m *lookupMetrics) ObserveLookup(mode string, outcome string, duration time.Duration) {
	m.operations.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(float64(duration.Microseconds()) / 1000.0)
}
