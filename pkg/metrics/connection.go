package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avolpe/searchd/pkg/server"
)

// connMetrics is the Prometheus implementation of server.ConnMetrics.
type connMetrics struct {
	active   prometheus.Gauge
	closed   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewConnMetrics creates a Prometheus-backed server.ConnMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewConnMetrics() server.ConnMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &connMetrics{
		active: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "searchd_connections_active",
				Help: "Number of connections currently being handled",
			},
		),
		closed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "searchd_connections_total",
				Help: "Total number of handled connections by result",
			},
			[]string{"result"}, // "ok", "oversized", "tls_rejected", "disconnect", "error"
		),
		duration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "searchd_connection_duration_milliseconds",
				Help: "Wall time of a connection from accept to close in milliseconds",
				Buckets: []float64{
					0.1,
					0.5,
					1,
					5,
					10,
					50,
					100,
					1000,
					10000, // slow clients, no read timeout is enforced
				},
			},
		),
	}
}

func (m *connMetrics) ConnOpened() {
	m.active.Inc()
}

func (m *connMetrics) ConnClosed(result string, duration time.Duration) {
	m.active.Dec()
	m.closed.WithLabelValues(result).Inc()
	m.duration.Observe(float64(duration.Microseconds()) / 1000.0)
}
