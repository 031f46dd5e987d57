package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authorization module.
type Metrics struct {
	// Authorization outcomes: authorized, permission_denied, limit_exceeded,
	// insufficient_funds, insufficient_guardian_gas, external_failure,
	// not_found, internal
	Outcomes *prometheus.CounterVec

	// End-to-end authorization latency by outcome
	Duration *prometheus.HistogramVec
}

// New creates a new Metrics instance with all authorization module metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_authorizations_total",
			Help: "Total spending authorization attempts by outcome",
		}, []string{"outcome"}),

		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custos_authorization_duration_seconds",
			Help:    "End-to-end duration of spending authorizations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
	}
}

// ObserveOutcome records one finished authorization.
func (m *Metrics) ObserveOutcome(outcome string, d time.Duration) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
		m.Duration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}
