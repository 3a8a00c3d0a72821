package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the offer lifecycle.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	TransitionConflict prometheus.Counter
	Expirations        prometheus.Counter
	EvaluationDuration prometheus.Histogram
}

// New creates a Metrics instance with all offer module metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subprice_offer_submissions_total",
			Help: "Total offer submissions by sector and verdict",
		}, []string{"sector", "verdict"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subprice_offer_transitions_total",
			Help: "Total offer status transitions by target status",
		}, []string{"to"}),
		TransitionConflict: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subprice_offer_transition_conflicts_total",
			Help: "Total status transitions lost to a concurrent decision",
		}),
		Expirations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subprice_offer_expirations_total",
			Help: "Total qualified offers expired by the sweep",
		}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "subprice_offer_evaluation_duration_seconds",
			Help:    "Duration of offer submission end to end",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveSubmission records a completed submission with its verdict.
func (m *Metrics) ObserveSubmission(sector, verdict string, start time.Time) {
	if m != nil {
		m.Submissions.WithLabelValues(sector, verdict).Inc()
		m.EvaluationDuration.Observe(time.Since(start).Seconds())
	}
}

// IncrementTransition records a successful status transition.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}

// IncrementConflict records a transition lost to a concurrent decision.
func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.TransitionConflict.Inc()
	}
}

// AddExpirations records offers expired by one sweep pass.
func (m *Metrics) AddExpirations(n int) {
	if m != nil && n > 0 {
		m.Expirations.Add(float64(n))
	}
}
