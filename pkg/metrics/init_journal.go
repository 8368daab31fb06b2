package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initJournalMetrics() {
	r.JournalAppendsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mew_journal_appends_total",
			Help: "Total number of records appended to the write-ahead journal",
		},
	)

	r.JournalBytesWritten = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mew_journal_bytes_written_total",
			Help: "Total number of bytes written to the journal, including frame overhead",
		},
	)

	r.JournalFsyncDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mew_journal_fsync_duration_seconds",
			Help:    "Time spent in fsync after each journal append",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0},
		},
	)

	r.JournalRecoveryRecords = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mew_journal_recovery_records",
			Help: "Number of records replayed during the most recent recovery",
		},
	)
}
