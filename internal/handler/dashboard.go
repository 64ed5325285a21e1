package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/gatekeeper/internal/service"
	"github.com/msomdec/gatekeeper/internal/view"
	datastar "github.com/starfederation/datastar-go/datastar"
)

// DashboardHandler serves the admin dashboard shell and its live fragments.
type DashboardHandler struct {
	accounts *service.AccountService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(accounts *service.AccountService) *DashboardHandler {
	return &DashboardHandler{accounts: accounts}
}

// HandleDashboard renders the dashboard page. The page itself is public;
// every piece of data on it arrives through the authenticated fragments.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.AdminPage().Render(r.Context(), w); err != nil {
		slog.Error("render admin page", "error", err)
	}
}

// HandleStatsFragment patches the stats panel via SSE.
func (h *DashboardHandler) HandleStatsFragment(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	stats, err := h.accounts.Stats(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, "dashboard stats", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(view.StatsPanel(view.StatsView{
		TotalUsers:          stats.TotalUsers,
		ActiveUsers:         stats.ActiveUsers,
		UserRoles:           stats.UserRoles,
		RecentRegistrations: stats.RecentRegistrations,
	})); err != nil {
		slog.Error("patch stats panel", "error", err)
	}
}

// HandleUsersFragment patches the user table via SSE.
func (h *DashboardHandler) HandleUsersFragment(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	users, err := h.accounts.List(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, "dashboard users", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(view.UsersTable(users)); err != nil {
		slog.Error("patch users table", "error", err)
	}
}
