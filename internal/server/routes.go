// Package server wires HTTP handlers into a chi router for the signaling
// service via routing helpers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/roomsignal/internal/auth"
)

// NewRouter configures every route for hub. The WebSocket endpoint sits
// outside the HTTP middleware group so the upgrade sees the raw
// ResponseWriter and long-lived sockets stay out of latency histograms.
func NewRouter(hub *Hub, cfg Config, verifier *auth.Verifier, logger zerolog.Logger) *chi.Mux {
	cfg = cfg.Sanitize()
	origins := newOriginPolicy(cfg.AllowedOrigins, logger)
	h := NewHandlers(hub, verifier, cfg, origins, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", h.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(requestMetrics)
		r.Use(requestLogger(logger))
		r.Use(securityHeaders)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins.corsOrigins(),
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Get("/", h.Health)
		r.Get("/health", h.Health)
		r.Get("/rooms", h.Rooms)
		r.Get("/rooms/{roomID}", h.Room)
		r.Get("/test", h.TestPage)
		r.Handle("/metrics", promhttp.Handler())
	})

	return r
}
