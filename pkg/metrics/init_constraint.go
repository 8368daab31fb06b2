package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initConstraintMetrics() {
	r.ConstraintViolationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mew_constraint_violations_total",
			Help: "Total number of constraint violations observed, by severity",
		},
		[]string{"severity"},
	)

	r.ConstraintCheckDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mew_constraint_check_duration_seconds",
			Help:    "Time spent evaluating constraints, by phase",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0},
		},
		[]string{"phase"},
	)
}
