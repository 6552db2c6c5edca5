/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/tasks/*          Quota
  /api/allocations/*    Admission and edits
  /api/partners/*       Income reports
  /api/contracts/*      Agreement rendering and attachment export
  /api/templates/*      Agreement templates
  /api/import/*         Spreadsheet imports
  /api/terbilang        Number to words
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when NewRouter gets no origins.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Letter-Number"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks/{id}/quota", h.GetTaskQuota)

		r.Route("/allocations", func(r chi.Router) {
			r.Post("/", h.CreateAllocation)
			r.Post("/check", h.CheckAllocation)
			r.Put("/{id}", h.UpdateAllocation)
			r.Delete("/{id}", h.DeleteAllocation)
		})

		r.Get("/partners/{id}/income", h.GetIncome)

		r.Route("/contracts/{partnerID}", func(r chi.Router) {
			r.Get("/", h.GetContract)
			r.Get("/attachment.xlsx", h.GetContractAttachment)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", h.CreateTemplate)
			r.Get("/{id}", h.GetTemplate)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/rates", h.ImportRates)
			r.Post("/tasks/{id}/allocations", h.ImportAllocations)
			r.Get("/template", h.GetImportTemplate)
		})

		r.Get("/terbilang", h.GetTerbilang)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
