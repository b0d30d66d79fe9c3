package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jkang1643/Exbabel/internal/api/ws"
	"github.com/jkang1643/Exbabel/internal/observability"
	"github.com/jkang1643/Exbabel/internal/observability/metrics"
)

// Stats is the /v1/stats response body.
type Stats struct {
	UptimeSeconds  int64 `json:"uptimeSeconds"`
	ActiveSessions int64 `json:"activeSessions"`
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(sessions *ws.Handler, m *metrics.Metrics, started time.Time) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger(m))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", sessions.ServeHTTP)
		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			stats := Stats{
				UptimeSeconds:  int64(time.Since(started).Seconds()),
				ActiveSessions: sessions.ActiveSessions(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(stats)
		})
	})

	return r
}
