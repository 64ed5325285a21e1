package handler

import (
	"time"

	"github.com/msomdec/gatekeeper/internal/domain"
	"github.com/msomdec/gatekeeper/internal/service"
)

// UserDTO is the JSON representation of a user. It is built only from a
// domain.UserView, so it has no way to carry a password hash.
type UserDTO struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"createdAt"`
	LastLogin *string `json:"lastLogin"`
}

func toUserDTO(u domain.UserView) UserDTO {
	dto := UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		t := u.LastLoginAt.Format(time.RFC3339)
		dto.LastLogin = &t
	}
	return dto
}

func toUserDTOs(users []domain.UserView) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	return dtos
}

// StatsDTO is the JSON representation of the user statistics overview.
type StatsDTO struct {
	TotalUsers          int            `json:"totalUsers"`
	ActiveUsers         int            `json:"activeUsers"`
	UserRoles           map[string]int `json:"userRoles"`
	RecentRegistrations int            `json:"recentRegistrations"`
}

func toStatsDTO(s service.Stats) StatsDTO {
	roles := make(map[string]int, len(s.UserRoles))
	for role, n := range s.UserRoles {
		roles[string(role)] = n
	}
	return StatsDTO{
		TotalUsers:          s.TotalUsers,
		ActiveUsers:         s.ActiveUsers,
		UserRoles:           roles,
		RecentRegistrations: s.RecentRegistrations,
	}
}
