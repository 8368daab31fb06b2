package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordPatternExecution records a pattern match against the store
func (r *Registry) RecordPatternExecution(status string, duration time.Duration, bindingsMatched int) {
	r.PatternExecutionsTotal.WithLabelValues(status).Inc()
	r.PatternDuration.WithLabelValues(status).Observe(duration.Seconds())
	r.PatternBindingsMatched.WithLabelValues(status).Observe(float64(bindingsMatched))
}

// RecordTxnBegin marks a transaction as active
func (r *Registry) RecordTxnBegin() {
	r.TxnActive.Inc()
}

// RecordTxnCommit records a successful commit and releases it from the active gauge
func (r *Registry) RecordTxnCommit(duration time.Duration) {
	r.TxnCommitsTotal.Inc()
	r.TxnCommitDuration.Observe(duration.Seconds())
	r.TxnActive.Dec()
}

// RecordTxnRollback records a rollback and releases it from the active gauge
func (r *Registry) RecordTxnRollback() {
	r.TxnRollbacksTotal.Inc()
	r.TxnActive.Dec()
}

// RecordSavepoint records creation of a savepoint
func (r *Registry) RecordSavepoint() {
	r.TxnSavepointsTotal.Inc()
}

// RecordRuleFixpoint records one fixpoint evaluation: how many rounds it took
// and how many actions it applied in total.
func (r *Registry) RecordRuleFixpoint(rounds int, actionsApplied int) {
	r.RuleFixpointRounds.Observe(float64(rounds))
	r.RuleActionsAppliedTotal.Add(float64(actionsApplied))
}

// RecordRuleFiring records a single rule match-and-fire
func (r *Registry) RecordRuleFiring(rule string) {
	r.RuleFiringsTotal.WithLabelValues(rule).Inc()
}

// RecordRuleLimitTrip records a fixpoint evaluation hitting a configured limit
func (r *Registry) RecordRuleLimitTrip(limit string) {
	r.RuleLimitTripsTotal.WithLabelValues(limit).Inc()
}

// RecordConstraintViolation records a violation found during checking, hard or soft
func (r *Registry) RecordConstraintViolation(severity string) {
	r.ConstraintViolationsTotal.WithLabelValues(severity).Inc()
}

// RecordConstraintCheck records time spent in a constraint-checking phase
func (r *Registry) RecordConstraintCheck(phase string, duration time.Duration) {
	r.ConstraintCheckDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordJournalAppend records one journal append: its wire size and fsync latency
func (r *Registry) RecordJournalAppend(bytesWritten int, fsyncDuration time.Duration) {
	r.JournalAppendsTotal.Inc()
	r.JournalBytesWritten.Add(float64(bytesWritten))
	r.JournalFsyncDuration.Observe(fsyncDuration.Seconds())
}

// RecordJournalRecovery sets the number of records replayed during the last recovery
func (r *Registry) RecordJournalRecovery(records int) {
	r.JournalRecoveryRecords.Set(float64(records))
}

// SetStoreSize sets the current live node and edge counts
func (r *Registry) SetStoreSize(nodes, edges int) {
	r.StoreNodesTotal.Set(float64(nodes))
	r.StoreEdgesTotal.Set(float64(edges))
}
