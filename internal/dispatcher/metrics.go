package dispatcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK           = "ok"
	outcomeRefreshError = "refresh_error"
	outcomeTransport    = "transport_error"
)

// Metrics records request counts and latencies per vendor service.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates request metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bluelink",
			Name:      "requests_total",
			Help:      "Requests sent to the vendor, by service and outcome.",
		}, []string{"service", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bluelink",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of requests sent to the vendor.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"service"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, outcome).Inc()
	if outcome != outcomeRefreshError {
		m.latency.WithLabelValues(service).Observe(elapsed.Seconds())
	}
}
