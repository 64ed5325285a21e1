// Package view renders the admin dashboard. The components in admin.templ
// are rendered directly by handlers or streamed as datastar fragments.
package view

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"fmt"
	"slices"
	"time"

	"github.com/msomdec/gatekeeper/internal/domain"
)

// Element ids patched by the dashboard fragments.
const (
	StatsPanelID = "stats-panel"
	UsersTableID = "users-table"
)

// StatsView is the data shown in the stats panel.
type StatsView struct {
	TotalUsers          int
	ActiveUsers         int
	UserRoles           map[domain.Role]int
	RecentRegistrations int
}

// loadPanels is the datastar action that fetches both fragments with the
// token the admin typed in.
func loadPanels() string {
	return fragmentGet("/admin/fragments/stats") + "; " + fragmentGet("/admin/fragments/users")
}

func fragmentGet(path string) string {
	return fmt.Sprintf("@get('%s', {headers: {Authorization: 'Bearer ' + $token}})", path)
}

func sortedRoles(m map[domain.Role]int) []domain.Role {
	roles := make([]domain.Role, 0, len(m))
	for role := range m {
		roles = append(roles, role)
	}
	slices.Sort(roles)
	return roles
}

func lastLogin(u domain.UserView) string {
	if u.LastLoginAt == nil {
		return "never"
	}
	return u.LastLoginAt.Format(time.RFC3339)
}
