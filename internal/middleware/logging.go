package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// LogRequest trace-logs every incoming request. Kept at trace level so the
// production log stays quiet unless the level is cranked up.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Tracef(" ====> request [%s] path: [%s] [UA: %s]", r.Method, r.URL.Path, r.UserAgent())
			next.ServeHTTP(w, r)
		})
	}
}
