package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/collections"
	"github.com/meridian-erp/meridian-erp/internal/contracts"
	"github.com/meridian-erp/meridian-erp/internal/customers"
	"github.com/meridian-erp/meridian-erp/internal/hr"
	"github.com/meridian-erp/meridian-erp/internal/income"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/legal"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Metrics            *observability.Metrics
	ContractsHandler   *contracts.Handler
	CollectionsHandler *collections.Handler
	IncomeHandler      *income.Handler
	CustomersHandler   *customers.Handler
	HRHandler          *hr.Handler
	InventoryHandler   *inventory.Handler
	LegalHandler       *legal.Handler
	UsersHandler       *users.Handler
	ReportsHandler     *reports.Handler
}

// NewRouter constructs the chi router with the full middleware stack and all
// module routes mounted under /api/v1.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: params.Logger, Config: params.Config}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	r.Use(params.Metrics.Middleware)
	if params.Config != nil {
		r.Use(chimw.Timeout(params.Config.AppRequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(IdentityMiddleware(params.Logger))

		api.Route("/contracts", params.ContractsHandler.MountRoutes)
		api.Route("/collections", params.CollectionsHandler.MountRoutes)
		api.Route("/receipts", params.IncomeHandler.MountRoutes)
		api.Route("/customers", params.CustomersHandler.MountRoutes)
		api.Route("/employees", params.HRHandler.MountRoutes)
		api.Route("/inventory", params.InventoryHandler.MountRoutes)
		api.Route("/legal-cases", params.LegalHandler.MountRoutes)
		api.Route("/users", params.UsersHandler.MountRoutes)
		api.Route("/reports", params.ReportsHandler.MountRoutes)
	})

	return r
}
