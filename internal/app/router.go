package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/opencanteen/opencanteen/internal/analytics"
	"github.com/opencanteen/opencanteen/internal/auth"
	"github.com/opencanteen/opencanteen/internal/dailysales"
	"github.com/opencanteen/opencanteen/internal/events"
	"github.com/opencanteen/opencanteen/internal/rbac"
	"github.com/opencanteen/opencanteen/internal/report"
	"github.com/opencanteen/opencanteen/internal/roles"
	"github.com/opencanteen/opencanteen/internal/schools"
	"github.com/opencanteen/opencanteen/internal/storage"
	"github.com/opencanteen/opencanteen/internal/users"
	"github.com/opencanteen/opencanteen/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	AuthMiddleware    *auth.Middleware
	RBACMiddleware    rbac.Middleware
	UsersHandler      *users.Handler
	RolesHandler      *roles.Handler
	SchoolsHandler    *schools.Handler
	ReportHandler     *report.Handler
	DailySalesHandler *dailysales.Handler
	AnalyticsHandler  *analytics.Handler
	StorageHandler    *storage.Handler
	EventsHandler     *events.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router serving the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	require := params.RBACMiddleware.Require

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.Authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(require(rbac.PermUsersManage))
				params.UsersHandler.MountRoutes(r)
			})
			// Avatar and signature uploads check self-or-admin themselves.
			params.StorageHandler.MountUserRoutes(r)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Use(require(rbac.PermRolesManage))
			params.RolesHandler.MountRoutes(r)
		})

		r.Route("/schools", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(require(rbac.PermSchoolsManage))
				params.SchoolsHandler.MountRoutes(r)
				params.StorageHandler.MountSchoolRoutes(r)
			})
		})

		r.Route("/reports/liquidation", func(r chi.Router) {
			r.Use(require(rbac.PermReportsRead))
			params.ReportHandler.MountRoutes(r, require)
		})

		r.Route("/reports/daily", func(r chi.Router) {
			r.Use(require(rbac.PermReportsRead))
			params.DailySalesHandler.MountRoutes(r, require)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(require(rbac.PermAnalyticsRead))
			params.AnalyticsHandler.MountRoutes(r)
		})

		r.Route("/events", func(r chi.Router) {
			r.Use(require(rbac.PermUsersManage))
			params.EventsHandler.MountRoutes(r)
		})

		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(require(rbac.PermReportsAdmin))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
