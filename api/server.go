/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/config/*       Rule-set configuration
  /api/quota/*        Quota computation
  /api/fees/*         Fee lifecycle
  /api/departments/*  Arrears checks
  /api/requests/*     Allocation approval chain
  /api/projects/*     Asset lifecycle
  /api/alerts/*       Threshold evaluation
  /api/reports/*      Generated narrative reports
  /api/summary        Dashboard roll-up
  /api/audit          Audit trail
  /api/scenarios/*    Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Rule-set configuration
		r.Route("/config", func(r chi.Router) {
			r.Get("/", h.GetConfig)
			r.Put("/", h.ReplaceConfig)
			r.Post("/quotas", h.UpsertCoefficient)
			r.Delete("/quotas/{id}", h.DeleteCoefficient)
			r.Put("/tiers", h.ReplaceTiers)
			r.Put("/discounts", h.ReplaceStages)
			r.Post("/alerts", h.UpsertAlert)
			r.Put("/alerts/{id}", h.SetAlertEnabled)
			r.Put("/billing", h.SetBilling)
		})

		// Quota computation
		r.Post("/quota/compute", h.ComputeQuota)

		// Fee lifecycle
		r.Route("/fees", func(r chi.Router) {
			r.Get("/", h.ListFees)
			r.Post("/", h.OpenFee)
			r.Post("/close-period", h.ClosePeriod)
			r.Get("/{id}", h.GetFee)
			r.Post("/{id}/verify", h.VerifyFee)
			r.Post("/{id}/remind", h.RemindFee)
			r.Post("/{id}/request-confirm", h.RequestFeeConfirm)
			r.Post("/{id}/confirm", h.ConfirmFee)
			r.Post("/{id}/deduct", h.DeductFee)
		})

		// Arrears checks
		r.Get("/departments/{id}/arrears", h.GetArrears)

		// Allocation approval chain
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Post("/", h.SubmitRequest)
			r.Get("/{id}", h.GetRequest)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
		})

		// Asset lifecycle
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.RegisterProject)
			r.Get("/{id}", h.GetProject)
			r.Post("/{id}/advance", h.AdvanceProject)
			r.Post("/{id}/dispose", h.DisposeProject)
		})

		// Alerts
		r.Post("/alerts/evaluate", h.EvaluateAlerts)

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Post("/fee-analysis", h.FeeAnalysis)
			r.Post("/triage", h.Triage)
		})

		// Dashboard and audit trail
		r.Get("/summary", h.GetSummary)
		r.Get("/audit", h.GetAudit)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetData)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
