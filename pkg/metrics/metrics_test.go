package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration not initialized")
	}
	if r.StoreNodesTotal == nil {
		t.Error("StoreNodesTotal not initialized")
	}
	if r.TxnCommitsTotal == nil {
		t.Error("TxnCommitsTotal not initialized")
	}
	if r.RuleFiringsTotal == nil {
		t.Error("RuleFiringsTotal not initialized")
	}
	if r.ConstraintViolationsTotal == nil {
		t.Error("ConstraintViolationsTotal not initialized")
	}
	if r.JournalAppendsTotal == nil {
		t.Error("JournalAppendsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/nodes", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/nodes", "201", 200*time.Millisecond)
	r.RecordHTTPRequest("GET", "/nodes", "404", 50*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/nodes", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Counter value = %v, want 1", metric.Counter.GetValue())
	}
}

func TestSetStoreSize(t *testing.T) {
	r := NewRegistry()

	r.SetStoreSize(100, 500)

	tests := []struct {
		name     string
		gauge    prometheus.Gauge
		expected float64
	}{
		{"StoreNodesTotal", r.StoreNodesTotal, 100},
		{"StoreEdgesTotal", r.StoreEdgesTotal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var metric dto.Metric
			if err := tt.gauge.Write(&metric); err != nil {
				t.Fatalf("Failed to write metric: %v", err)
			}

			if metric.Gauge.GetValue() != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, metric.Gauge.GetValue(), tt.expected)
			}
		})
	}
}

func TestRecordPatternExecution(t *testing.T) {
	r := NewRegistry()

	r.RecordPatternExecution("ok", 50*time.Millisecond, 12)

	counter, err := r.PatternExecutionsTotal.GetMetricWithLabelValues("ok")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Pattern counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestTxnLifecycleMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordTxnBegin()
	r.RecordTxnBegin()
	r.RecordTxnCommit(5 * time.Millisecond)
	r.RecordTxnRollback()

	var metric dto.Metric
	if err := r.TxnActive.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 0 {
		t.Errorf("TxnActive = %v, want 0", metric.Gauge.GetValue())
	}

	if err := r.TxnCommitsTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("TxnCommitsTotal = %v, want 1", metric.Counter.GetValue())
	}

	if err := r.TxnRollbacksTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("TxnRollbacksTotal = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordSavepoint(t *testing.T) {
	r := NewRegistry()

	r.RecordSavepoint()
	r.RecordSavepoint()

	var metric dto.Metric
	if err := r.TxnSavepointsTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("TxnSavepointsTotal = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordRuleFixpoint(t *testing.T) {
	r := NewRegistry()

	r.RecordRuleFiring("propagate_tags")
	r.RecordRuleFiring("propagate_tags")
	r.RecordRuleFixpoint(3, 7)
	r.RecordRuleLimitTrip("max_rounds")

	firedCounter, err := r.RuleFiringsTotal.GetMetricWithLabelValues("propagate_tags")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := firedCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("RuleFiringsTotal = %v, want 2", metric.Counter.GetValue())
	}

	if err := r.RuleFixpointRounds.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("RuleFixpointRounds sample count = %v, want 1", metric.Histogram.GetSampleCount())
	}

	if err := r.RuleActionsAppliedTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 7 {
		t.Errorf("RuleActionsAppliedTotal = %v, want 7", metric.Counter.GetValue())
	}

	tripCounter, err := r.RuleLimitTripsTotal.GetMetricWithLabelValues("max_rounds")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := tripCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("RuleLimitTripsTotal = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordConstraintViolation(t *testing.T) {
	r := NewRegistry()

	r.RecordConstraintViolation("hard")
	r.RecordConstraintViolation("hard")
	r.RecordConstraintViolation("soft")
	r.RecordConstraintCheck("deferred", 2*time.Millisecond)

	hardCounter, err := r.ConstraintViolationsTotal.GetMetricWithLabelValues("hard")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := hardCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("ConstraintViolationsTotal{hard} = %v, want 2", metric.Counter.GetValue())
	}

	softCounter, err := r.ConstraintViolationsTotal.GetMetricWithLabelValues("soft")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := softCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("ConstraintViolationsTotal{soft} = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordJournalAppend(t *testing.T) {
	r := NewRegistry()

	r.RecordJournalAppend(128, 1*time.Millisecond)
	r.RecordJournalAppend(64, 2*time.Millisecond)
	r.RecordJournalRecovery(42)

	var metric dto.Metric
	if err := r.JournalAppendsTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("JournalAppendsTotal = %v, want 2", metric.Counter.GetValue())
	}

	if err := r.JournalBytesWritten.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 192 {
		t.Errorf("JournalBytesWritten = %v, want 192", metric.Counter.GetValue())
	}

	if err := r.JournalRecoveryRecords.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 42 {
		t.Errorf("JournalRecoveryRecords = %v, want 42", metric.Gauge.GetValue())
	}
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()

	r.UptimeSeconds.Set(3600)
	r.GoRoutines.Set(50)
	r.MemoryAllocBytes.Set(1024 * 1024 * 100)
	r.MemorySysBytes.Set(1024 * 1024 * 200)

	tests := []struct {
		name     string
		gauge    prometheus.Gauge
		expected float64
	}{
		{"UptimeSeconds", r.UptimeSeconds, 3600},
		{"GoRoutines", r.GoRoutines, 50},
		{"MemoryAllocBytes", r.MemoryAllocBytes, 1024 * 1024 * 100},
		{"MemorySysBytes", r.MemorySysBytes, 1024 * 1024 * 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var metric dto.Metric
			if err := tt.gauge.Write(&metric); err != nil {
				t.Fatalf("Failed to write metric: %v", err)
			}

			if metric.Gauge.GetValue() != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, metric.Gauge.GetValue(), tt.expected)
			}
		})
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()

	if promRegistry == nil {
		t.Fatal("GetPrometheusRegistry() returned nil")
	}

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	if len(metrics) == 0 {
		t.Error("No metrics registered")
	}

	expectedMetrics := []string{
		"mew_store_nodes_total",
		"mew_txn_commits_total",
		"graphdb_uptime_seconds",
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !metricNames[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestHistogramMetrics(t *testing.T) {
	r := NewRegistry()

	r.HTTPRequestDuration.WithLabelValues("GET", "/nodes", "200").Observe(0.1)
	r.HTTPRequestDuration.WithLabelValues("GET", "/nodes", "200").Observe(0.2)
	r.HTTPRequestDuration.WithLabelValues("GET", "/nodes", "200").Observe(0.15)

	histogram, err := r.HTTPRequestDuration.GetMetricWithLabelValues("GET", "/nodes", "200")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}

	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}

	sum := metric.Histogram.GetSampleSum()
	if sum < 0.44 || sum > 0.46 {
		t.Errorf("Sample sum = %v, want ~0.45", sum)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordHTTPRequest("GET", "/test", "200", 10*time.Millisecond)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/test", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1000 {
		t.Errorf("Counter = %v, want 1000", metric.Counter.GetValue())
	}
}

func TestMetricLabels(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/nodes", "200", 10*time.Millisecond)
	r.RecordHTTPRequest("POST", "/nodes", "201", 20*time.Millisecond)
	r.RecordHTTPRequest("GET", "/edges", "200", 15*time.Millisecond)

	getNodes, _ := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/nodes", "200")
	postNodes, _ := r.HTTPRequestsTotal.GetMetricWithLabelValues("POST", "/nodes", "201")
	getEdges, _ := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/edges", "200")

	var metric dto.Metric

	getNodes.Write(&metric)
	if metric.Counter.GetValue() != 1 {
		t.Errorf("GET /nodes counter = %v, want 1", metric.Counter.GetValue())
	}

	postNodes.Write(&metric)
	if metric.Counter.GetValue() != 1 {
		t.Errorf("POST /nodes counter = %v, want 1", metric.Counter.GetValue())
	}

	getEdges.Write(&metric)
	if metric.Counter.GetValue() != 1 {
		t.Errorf("GET /edges counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, m := range metrics {
		name := m.GetName()
		if !strings.HasPrefix(name, "mew_") && !strings.HasPrefix(name, "graphdb_") {
			t.Errorf("Metric %s has neither mew_ nor graphdb_ prefix", name)
		}
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordHTTPRequest("GET", "/nodes", "200", 10*time.Millisecond)
	}
}

func BenchmarkRecordJournalAppend(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordJournalAppend(128, 1*time.Millisecond)
	}
}

func BenchmarkSetGauge(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.StoreNodesTotal.Set(float64(i))
	}
}
