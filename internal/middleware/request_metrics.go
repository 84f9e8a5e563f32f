package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gr72s/self/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics observes request duration and counts requests per method
// and response status.
func RequestMetrics(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func(begin time.Time) {
				metricsManager.HistogramRequestDuration.Observe(time.Since(begin).Seconds())
			}(time.Now())

			// default to 200, WriteHeader is not called on implicit OK
			statusWriter := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(statusWriter, r)

			metricsManager.CounterRequests.With(prometheus.Labels{
				"method": r.Method,
				"status": strconv.Itoa(statusWriter.status),
			}).Inc()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(statusCode int) {
	sr.ResponseWriter.WriteHeader(statusCode)
	sr.status = statusCode
}
