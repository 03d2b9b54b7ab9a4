package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records gateway request counts and latencies, labelled by route
// template so ids never become label values.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates gateway metrics and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinfolio",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Dashboard API requests by endpoint, method and status.",
		}, []string{"endpoint", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coinfolio",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Dashboard API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(endpoint, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, method, status).Inc()
	m.duration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}
