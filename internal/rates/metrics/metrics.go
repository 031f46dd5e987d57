package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rates module.
type Metrics struct {
	// Conversions by resolution path: identity, cache, direct, cross, fail_open
	Conversions *prometheus.CounterVec

	// Oracle call latency by outcome
	OracleLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all rates module metrics registered.
func New() *Metrics {
	return &Metrics{
		Conversions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_rate_conversions_total",
			Help: "Total currency conversions by resolution path",
		}, []string{"path"}),

		OracleLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custos_rate_oracle_duration_seconds",
			Help:    "Duration of price oracle spot rate lookups",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"outcome"}), // outcome: "ok", "error"
	}
}

// IncrementConversion records a conversion resolved via the given path.
func (m *Metrics) IncrementConversion(path string) {
	if m != nil {
		m.Conversions.WithLabelValues(path).Inc()
	}
}

// ObserveOracleLatency records the duration of one oracle lookup.
func (m *Metrics) ObserveOracleLatency(outcome string, d time.Duration) {
	if m != nil {
		m.OracleLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}
