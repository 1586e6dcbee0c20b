/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/uploads/*    CSV ingest
  /api/board/*      Board state and mutations
  /api/assign/*     Auto-assign preview and apply
  /api/rotation/*   Quarter rotation and archives
  /api/audit        Audit trail and CSV export
  /api/export/*     Ad-hoc board export
  /metrics          Prometheus scrape endpoint
  /healthz          Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/boardd/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/uploads/{kind}", h.UploadCSV)

		r.Route("/board", func(r chi.Router) {
			r.Get("/", h.GetBoard)
			r.Put("/day", h.SetDay)
			r.Post("/place", h.PlaceBadge)
			r.Post("/unplace", h.UnplaceBadge)
			r.Post("/presence", h.TogglePresence)
			r.Post("/break", h.ToggleBreak)
			r.Get("/search", h.SearchBadges)
		})

		r.Route("/assign", func(r chi.Router) {
			r.Post("/preview", h.PreviewAssign)
			r.Post("/apply", h.ApplyAssign)
		})

		r.Route("/rotation", func(r chi.Router) {
			r.Get("/", h.GetRotation)
			r.Post("/request", h.RequestRotation)
			r.Post("/confirm", h.ConfirmRotation)
			r.Post("/decline", h.DeclineRotation)
			r.Get("/snapshots", h.ListSnapshots)
			r.Get("/snapshots/{quarter}", h.GetSnapshotCSV)
		})

		r.Get("/audit", h.GetAudit)
		r.Get("/audit/export", h.ExportAuditCSV)
		r.Get("/export/board", h.ExportBoardCSV)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.Health)

	return r
}
