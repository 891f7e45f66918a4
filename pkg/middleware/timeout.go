package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/BotCoder254/story-discovery/pkg/logger"
)

// Timeout bounds each request by the given duration. When the deadline
// fires before the handler has written anything, the client gets a 504;
// a handler that already started its response is left alone.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if gw.started.CompareAndSwap(false, true) {
					logger.FromContext(r.Context()).Warn("request deadline exceeded",
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					w.Write([]byte(`{"error":"request timeout"}`))
				}
			}
		})
	}
}

// guardedWriter records whether the handler got its response out first.
type guardedWriter struct {
	http.ResponseWriter
	started atomic.Bool
}

func (gw *guardedWriter) WriteHeader(code int) {
	if gw.started.CompareAndSwap(false, true) {
		gw.ResponseWriter.WriteHeader(code)
	}
}

func (gw *guardedWriter) Write(b []byte) (int, error) {
	gw.started.Store(true)
	return gw.ResponseWriter.Write(b)
}
