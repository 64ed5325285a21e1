package service

import (
	"context"
	"time"

	"github.com/msomdec/gatekeeper/internal/domain"
)

// RecentWindow is how far back a registration counts as recent in Stats.
const RecentWindow = 7 * 24 * time.Hour

// Stats summarizes the user base for the admin overview.
type Stats struct {
	TotalUsers          int
	ActiveUsers         int
	UserRoles           map[domain.Role]int
	RecentRegistrations int
}

// AccountService implements the user-management operations. Each method
// receives the authenticated caller and enforces ownership and role rules
// before touching the CredentialStore.
type AccountService struct {
	creds *CredentialStore
	now   func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(creds *CredentialStore, opts ...Option) *AccountService {
	s := applyOptions(opts)
	return &AccountService{creds: creds, now: s.now}
}

// Get returns the user with the given id. Callers may read their own record;
// admins may read any.
func (s *AccountService) Get(ctx context.Context, caller domain.UserView, id string) (domain.UserView, error) {
	if caller.ID != id && !caller.IsAdmin() {
		return domain.UserView{}, domain.ErrAccessDenied
	}
	return s.creds.FindByID(ctx, id)
}

// Update applies in to the user with the given id. Callers may update their
// own email; only admins may touch other users or any role. Email and role
// are written together or not at all.
func (s *AccountService) Update(ctx context.Context, caller domain.UserView, id string, in UpdateInput) (domain.UserView, error) {
	if caller.ID != id && !caller.IsAdmin() {
		return domain.UserView{}, domain.ErrAccessDenied
	}
	if in.Role != nil && !caller.IsAdmin() {
		return domain.UserView{}, domain.ErrRoleChange
	}

	current, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return domain.UserView{}, err
	}

	if err := asValidationError(in.Validate()); err != nil {
		return domain.UserView{}, err
	}

	if in.Email == nil && in.Role == nil {
		return current, nil
	}

	var role *domain.Role
	if in.Role != nil {
		r, err := domain.ParseRole(*in.Role)
		if err != nil {
			return domain.UserView{}, domain.NewValidationError("role", "must be a valid value")
		}
		role = &r
	}
	return s.creds.Update(ctx, id, in.Email, role)
}

// Delete removes the user with the given id. Only admins may delete, and
// never their own account.
func (s *AccountService) Delete(ctx context.Context, caller domain.UserView, id string) error {
	if !caller.IsAdmin() {
		return domain.ErrAccessDenied
	}
	if caller.ID == id {
		return domain.ErrSelfDelete
	}
	return s.creds.Delete(ctx, id)
}

// List returns every user in insertion order. Admin only.
func (s *AccountService) List(ctx context.Context, caller domain.UserView) ([]domain.UserView, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	return s.creds.ListAll(ctx)
}

// Stats aggregates counts over all users. Admin only.
func (s *AccountService) Stats(ctx context.Context, caller domain.UserView) (Stats, error) {
	users, err := s.List(ctx, caller)
	if err != nil {
		return Stats{}, err
	}

	now := s.now()
	stats := Stats{
		TotalUsers: len(users),
		UserRoles:  make(map[domain.Role]int),
	}
	for _, u := range users {
		if u.LastLoginAt != nil {
			stats.ActiveUsers++
		}
		stats.UserRoles[u.Role]++
		if now.Sub(u.CreatedAt) <= RecentWindow {
			stats.RecentRegistrations++
		}
	}
	return stats, nil
}
