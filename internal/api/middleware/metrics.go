package middleware

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// MetricsCollector counts requests, error responses, and conversational
// turns (POSTs to the turn and facts endpoints).
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
	turnCount    *atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(requestCount, errorCount, turnCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
		turnCount:    turnCount,
	}
}

// Middleware returns middleware that updates the counters per request.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)

		// Wrap response writer to capture status
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		// Count errors (4xx and 5xx)
		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}

		// A turn only counts once it was actually processed.
		if rw.statusCode < 400 && isTurnRequest(r) {
			mc.turnCount.Add(1)
		}
	})
}

func isTurnRequest(r *http.Request) bool {
	return r.Method == http.MethodPost &&
		(strings.HasSuffix(r.URL.Path, "/turns") || strings.HasSuffix(r.URL.Path, "/facts"))
}
