package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Logging writes one line per request; 5xx responses are logged as errors
func Logging(logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			if rec.status >= http.StatusInternalServerError {
				logger.Error("%s %s - status=%d duration=%s", r.Method, r.URL.Path, rec.status, elapsed)
				return
			}
			logger.Info("%s %s - status=%d duration=%s", r.Method, r.URL.Path, rec.status, elapsed)
		})
	}
}
