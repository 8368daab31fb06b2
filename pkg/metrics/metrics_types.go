package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric the kernel exposes, scoped to the
// components that actually exist in this module (transaction lifecycle,
// rule fixpoint, constraint checking, journal durability, pattern
// execution, store size, and the session front end) rather than the
// teacher's full deployment surface — replication, clustering,
// licensing, and security metrics have no counterpart here and are
// dropped (see DESIGN.md).
type Registry struct {
	// HTTP / session front end
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Store
	StoreNodesTotal prometheus.Gauge
	StoreEdgesTotal prometheus.Gauge

	// Pattern execution
	PatternExecutionsTotal *prometheus.CounterVec
	PatternDuration        *prometheus.HistogramVec
	PatternBindingsMatched *prometheus.HistogramVec

	// Transaction lifecycle
	TxnActive           prometheus.Gauge
	TxnCommitsTotal      prometheus.Counter
	TxnRollbacksTotal    prometheus.Counter
	TxnCommitDuration    prometheus.Histogram
	TxnSavepointsTotal   prometheus.Counter

	// Rule fixpoint
	RuleFiringsTotal       *prometheus.CounterVec
	RuleFixpointRounds     prometheus.Histogram
	RuleActionsAppliedTotal prometheus.Counter
	RuleLimitTripsTotal    *prometheus.CounterVec

	// Constraint checking
	ConstraintViolationsTotal *prometheus.CounterVec
	ConstraintCheckDuration   *prometheus.HistogramVec

	// Journal
	JournalAppendsTotal    prometheus.Counter
	JournalBytesWritten    prometheus.Counter
	JournalFsyncDuration   prometheus.Histogram
	JournalRecoveryRecords prometheus.Gauge

	// System
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.initHTTPMetrics()
	r.initStoreMetrics()
	r.initPatternMetrics()
	r.initTxnMetrics()
	r.initRuleMetrics()
	r.initConstraintMetrics()
	r.initJournalMetrics()
	r.initSystemMetrics()

	return r
}

func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
