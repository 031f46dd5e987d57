package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the execution module.
type Metrics struct {
	// Executions by action kind and outcome (success, error, panic)
	Executions *prometheus.CounterVec

	// Marketplace call latency by action kind
	MarketplaceLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all execution module metrics registered.
func New() *Metrics {
	return &Metrics{
		Executions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_executions_total",
			Help: "Total trade executions by action kind and outcome",
		}, []string{"action_kind", "outcome"}),

		MarketplaceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custos_marketplace_call_duration_seconds",
			Help:    "Duration of marketplace collaborator calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"action_kind"}),
	}
}

// IncrementExecution records one execution outcome.
func (m *Metrics) IncrementExecution(actionKind, outcome string) {
	if m != nil {
		m.Executions.WithLabelValues(actionKind, outcome).Inc()
	}
}

// ObserveMarketplaceLatency records the duration of one marketplace call.
func (m *Metrics) ObserveMarketplaceLatency(actionKind string, d time.Duration) {
	if m != nil {
		m.MarketplaceLatency.WithLabelValues(actionKind).Observe(d.Seconds())
	}
}
