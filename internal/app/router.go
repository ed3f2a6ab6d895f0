package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pharmaflow/pharmaflow/internal/alerts"
	"github.com/pharmaflow/pharmaflow/internal/assignments"
	"github.com/pharmaflow/pharmaflow/internal/auth"
	"github.com/pharmaflow/pharmaflow/internal/dashboard"
	"github.com/pharmaflow/pharmaflow/internal/observability"
	"github.com/pharmaflow/pharmaflow/internal/shared"
	"github.com/pharmaflow/pharmaflow/internal/stock"
	"github.com/pharmaflow/pharmaflow/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Sessions    *shared.SessionStore
	// Idempotency enables Idempotency-Key handling on create endpoints.
	Idempotency *shared.IdempotencyStore

	AuthHandler       *auth.Handler
	StockHandler      *stock.Handler
	AlertsHandler     *alerts.Handler
	AssignmentHandler *assignments.Handler
	DashboardHandler  *dashboard.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with PharmaFlow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Sessions: params.Sessions,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AuthHandler != nil {
		r.Route("/session", params.AuthHandler.MountRoutes)
	}
	if params.StockHandler != nil {
		r.Route("/stock-entries", func(sr chi.Router) {
			sr.Use(Idempotent(params.Idempotency, "stock", params.Logger))
			params.StockHandler.MountRoutes(sr)
		})
		r.Route("/projects", params.StockHandler.MountProjectRoutes)
	}
	if params.AlertsHandler != nil {
		r.Route("/alerts", params.AlertsHandler.MountRoutes)
	}
	if params.AssignmentHandler != nil {
		r.Route("/facilities", func(sr chi.Router) {
			sr.Use(Idempotent(params.Idempotency, "assignments", params.Logger))
			params.AssignmentHandler.MountFacilityRoutes(sr)
		})
		r.Route("/assignments", params.AssignmentHandler.MountRoutes)
		r.Route("/users", params.AssignmentHandler.MountUserRoutes)
		r.Route("/admin", params.AssignmentHandler.MountAdminRoutes)
	}
	if params.DashboardHandler != nil {
		r.Method(http.MethodGet, "/dashboard", params.DashboardHandler)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
