package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/choretally/internal/metrics"
)

// Metrics records request counts and latency labelled by the matched route
// pattern. It must wrap the mux so the pattern is set when it runs.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, r.Method, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
