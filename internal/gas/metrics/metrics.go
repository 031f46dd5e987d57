package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gas module.
type Metrics struct {
	// Sponsorship outcomes: skipped, sponsored, insufficient, failed
	Sponsorships *prometheus.CounterVec

	// End-to-end sponsorship duration including the finality wait
	SponsorshipDuration prometheus.Histogram
}

// New creates a new Metrics instance with all gas module metrics registered.
func New() *Metrics {
	return &Metrics{
		Sponsorships: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_gas_sponsorships_total",
			Help: "Total gas sponsorship checks by outcome",
		}, []string{"outcome"}),

		SponsorshipDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_gas_sponsorship_duration_seconds",
			Help:    "Duration of gas top-ups including the finality wait",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 90, 120},
		}),
	}
}

// IncrementSponsorship records one sponsorship check with its outcome.
func (m *Metrics) IncrementSponsorship(outcome string) {
	if m != nil {
		m.Sponsorships.WithLabelValues(outcome).Inc()
	}
}

// ObserveSponsorshipDuration records the duration of one completed top-up.
func (m *Metrics) ObserveSponsorshipDuration(d time.Duration) {
	if m != nil {
		m.SponsorshipDuration.Observe(d.Seconds())
	}
}
