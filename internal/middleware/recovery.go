package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gr72s/self/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery stops a panicking handler from taking the whole server down.
// The panic is logged with its stack and counted, the client gets a 500.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				log.Errorf("http: panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
