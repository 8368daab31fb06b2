package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRuleMetrics() {
	r.RuleFiringsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mew_rule_firings_total",
			Help: "Total number of times a rule's pattern matched and its actions ran",
		},
		[]string{"rule"},
	)

	r.RuleFixpointRounds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mew_rule_fixpoint_rounds",
			Help:    "Number of fixpoint rounds evaluated per commit",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
	)

	r.RuleActionsAppliedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mew_rule_actions_applied_total",
			Help: "Total number of mutation primitives applied by rule actions",
		},
	)

	r.RuleLimitTripsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mew_rule_limit_trips_total",
			Help: "Total number of times a fixpoint evaluation hit a configured rule limit",
		},
		[]string{"limit"},
	)
}
