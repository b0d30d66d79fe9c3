// Package observability provides the metrics server and HTTP middleware.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/jkang1643/Exbabel/internal/observability/metrics"
)

// RequestLogger returns HTTP middleware that logs each completed request and
// records its duration. WebSocket upgrades hijack the connection, so their
// entry is written when the session ends and covers the whole session.
func RequestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				// Hijacked connections never write through the wrapper.
				status = http.StatusSwitchingProtocols
			}
			m.RecordHTTPRequest(path, strconv.Itoa(status), duration.Seconds())

			log.Info().
				Str("method", r.Method).
				Str("path", path).
				Int("status", status).
				Dur("duration", duration).
				Msg("HTTP request completed")
		})
	}
}
