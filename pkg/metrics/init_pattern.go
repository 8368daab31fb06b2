package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPatternMetrics() {
	r.PatternExecutionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mew_pattern_executions_total",
			Help: "Total number of pattern matches executed",
		},
		[]string{"status"},
	)

	r.PatternDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mew_pattern_duration_seconds",
			Help:    "Pattern match execution duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"status"},
	)

	r.PatternBindingsMatched = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mew_pattern_bindings_matched",
			Help:    "Number of variable bindings produced per pattern match",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000},
		},
		[]string{"status"},
	)
}
