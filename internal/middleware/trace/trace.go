// Package trace logs every request and records its latency.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "expenses/internal/log"
	"expenses/internal/metrics"
)

// Middleware handles request tracing and logging
type Middleware struct {
	logger *applog.StructuredLogger
	total  int64
}

func NewMiddleware(logger *applog.Logger) *Middleware {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Middleware{logger: applog.NewStructuredLogger(logger.WithComponent(applog.ComponentHTTP))}
}

// Handler logs start and completion of each request and observes its duration
// under the matched route pattern.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := r.RemoteAddr

		m.logger.LogHTTPStart(ctx, r, clientIP)
		atomic.AddInt64(&m.total, 1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		m.logger.LogHTTPEnd(ctx, r, status, elapsed.Milliseconds(), clientIP)
		metrics.ObserveResponse(r.Method, routePattern(r), status, elapsed)
	})
}

// Total counts requests seen since creation.
func (m *Middleware) Total() int64 {
	return atomic.LoadInt64(&m.total)
}

// routePattern keeps the metric's label set bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
