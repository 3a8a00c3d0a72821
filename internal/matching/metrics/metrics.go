package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the matching engine.
type Metrics struct {
	Searches       *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	ResultSize     prometheus.Histogram
}

// New creates a Metrics instance with all matching metrics registered.
func New() *Metrics {
	return &Metrics{
		Searches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subprice_searches_total",
			Help: "Total number of provider searches by sector and outcome",
		}, []string{"sector", "outcome"}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "subprice_search_duration_seconds",
			Help:    "Duration of matching engine searches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ResultSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "subprice_search_results",
			Help:    "Redacted records returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(sector, outcome string, start time.Time, results int) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(sector, outcome).Inc()
	m.SearchDuration.Observe(time.Since(start).Seconds())
	m.ResultSize.Observe(float64(results))
}
