package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	outcomes  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers and returns a recorder exposing
// negotiation outcome counts and HTTP attempt latency.
func NewPrometheusRecorder() Recorder {
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "x402_agent",
			Name:      "negotiations_total",
			Help:      "payment negotiation terminal outcomes",
		},
		[]string{"outcome", "network"},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "x402_agent",
			Name:      "attempt_latency_seconds",
			Help:      "HTTP attempt latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "network"},
	)

	prometheus.MustRegister(outcomes, histogram)

	return &PrometheusRecorder{
		outcomes:  outcomes,
		histogram: histogram,
	}
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.outcomes.With(prometheus.Labels{
		"outcome": name,
		"network": labels["network"],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation": name,
		"network":   labels["network"],
	}).Observe(d.Seconds())
}
