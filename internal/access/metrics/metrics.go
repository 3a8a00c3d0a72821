package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the access policy module.
type Metrics struct {
	EntitlementUpdates      prometheus.Counter
	EntitlementUpdateErrors prometheus.Counter
	LoadPolicyDuration      prometheus.Histogram
}

// New creates a Metrics instance with all access module metrics registered.
func New() *Metrics {
	return &Metrics{
		EntitlementUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subprice_entitlement_updates_total",
			Help: "Total number of accepted entitlement updates",
		}),
		EntitlementUpdateErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subprice_entitlement_update_errors_total",
			Help: "Total number of rejected entitlement updates",
		}),
		LoadPolicyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "subprice_load_policy_duration_seconds",
			Help:    "Duration of access policy loads (matching critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementUpdates records an accepted entitlement update.
func (m *Metrics) IncrementUpdates() {
	if m != nil {
		m.EntitlementUpdates.Inc()
	}
}

// IncrementUpdateErrors records a rejected entitlement update.
func (m *Metrics) IncrementUpdateErrors() {
	if m != nil {
		m.EntitlementUpdateErrors.Inc()
	}
}

// ObserveLoadPolicy records the duration of a policy load.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLoadPolicy(start time.Time) {
	if m != nil {
		m.LoadPolicyDuration.Observe(time.Since(start).Seconds())
	}
}
