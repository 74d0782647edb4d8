package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestRecorder receives per-request HTTP metrics.
type RequestRecorder interface {
	RequestObserved(method, path string, statusCode int, duration time.Duration)
}

// Metrics returns a middleware that records HTTP metrics labelled by route
// pattern.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)

			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}

			recorder.RequestObserved(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}
