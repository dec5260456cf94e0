/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the member dashboard

ROUTE GROUPS:
  /api/accounts/*   Account and transaction operations
  /api/admin/*      Status changes and reconciliation
  /metrics          Prometheus scrape endpoint
  /healthz          Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured. metricsHandler is
// mounted at /metrics when non-nil.
func NewRouter(h *Handler, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.OpenAccount)
			r.Get("/{id}", h.GetAccount)
			r.Post("/{id}/transactions", h.SubmitTransaction)
			r.Get("/{id}/transactions", h.ListTransactions)
			r.Post("/{id}/verify", h.VerifyAccount)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/accounts/{id}/status", h.SetAccountStatus)
			r.Post("/accounts/{id}/reconcile", h.ReconcileAccount)
		})
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.Get("/healthz", h.Healthz)

	return r
}
