package main

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/mewdb/mew/pkg/kernel"
	"github.com/mewdb/mew/pkg/metrics"
)

// metricsMiddleware wraps next so every request updates the HTTP metrics
// registered in pkg/metrics/init_http.go: total/duration by
// method+path+status, in-flight count, and response size.
//
// Grounded on the teacher's cmd/graphdb-server metricsMiddleware
// (pkg/api/middleware_metrics.go).
func metricsMiddleware(reg *metrics.Registry, next http.Handler) http.Handler {
	if reg == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reg.HTTPRequestsInFlight.Inc()
		defer reg.HTTPRequestsInFlight.Dec()

		wrapper := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		status := strconv.Itoa(wrapper.statusCode)
		reg.RecordHTTPRequest(r.Method, r.URL.Path, status, duration)
		reg.HTTPResponseSizeBytes.WithLabelValues(r.Method, r.URL.Path).Observe(float64(wrapper.bytesWritten))
	})
}

// statusResponseWriter wraps http.ResponseWriter to capture the status
// code and byte count a handler actually wrote.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// updateSystemMetricsPeriodically sets the UptimeSeconds/GoRoutines/
// MemoryAllocBytes/MemorySysBytes gauges on a fixed tick, until stop is
// closed. These are process-wide gauges, not per-request counters, so a
// ticker rather than the request path is what drives them.
func updateSystemMetricsPeriodically(reg *metrics.Registry, k *kernel.Kernel, startedAt time.Time, stop <-chan struct{}) {
	if reg == nil {
		return
	}
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			reg.UptimeSeconds.Set(time.Since(startedAt).Seconds())
			reg.GoRoutines.Set(float64(runtime.NumGoroutine()))

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			reg.MemoryAllocBytes.Set(float64(m.Alloc))
			reg.MemorySysBytes.Set(float64(m.Sys))
		}
	}
}
