package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/msomdec/gatekeeper/internal/domain"
	"github.com/msomdec/gatekeeper/internal/service"
)

// NewRouter sets up all HTTP routes.
func NewRouter(auth *service.AuthService, accounts *service.AccountService) http.Handler {
	metrics := NewMetrics()
	authHandler := NewAuthHandler(auth)
	userHandler := NewUserHandler(accounts)
	dashboardHandler := NewDashboardHandler(accounts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(metrics.Instrument)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, kindNotFound, "Route not found")
	})

	// Public endpoints
	r.Get("/healthz", HandleHealthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/admin", dashboardHandler.HandleDashboard)
	r.Post("/api/auth/register", authHandler.HandleRegister)
	r.Post("/api/auth/login", authHandler.HandleLogin)

	// Protected endpoints
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(auth))

		r.Get("/api/auth/profile", authHandler.HandleProfile)
		r.Get("/api/protected", authHandler.HandleProtected)
		r.Get("/api/users/{id}", userHandler.HandleGet)
		r.Put("/api/users/{id}", userHandler.HandleUpdate)

		// Admin-only endpoints
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))

			r.Get("/api/users", userHandler.HandleList)
			r.Get("/api/users/stats/overview", userHandler.HandleStats)
			r.Delete("/api/users/{id}", userHandler.HandleDelete)
			r.Get("/admin/fragments/stats", dashboardHandler.HandleStatsFragment)
			r.Get("/admin/fragments/users", dashboardHandler.HandleUsersFragment)
		})
	})

	return r
}
