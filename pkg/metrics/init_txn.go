package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTxnMetrics() {
	r.TxnActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mew_txn_active",
			Help: "Number of transactions currently holding the writer lock or open for reads",
		},
	)

	r.TxnCommitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mew_txn_commits_total",
			Help: "Total number of committed transactions",
		},
	)

	r.TxnRollbacksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mew_txn_rollbacks_total",
			Help: "Total number of rolled-back transactions",
		},
	)

	r.TxnCommitDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mew_txn_commit_duration_seconds",
			Help:    "Time from Commit() call to the writer lock being released",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.TxnSavepointsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mew_txn_savepoints_total",
			Help: "Total number of savepoints created",
		},
	)
}
