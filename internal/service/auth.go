package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/gatekeeper/internal/domain"
)

// AuthService handles registration, login and bearer-token authentication.
type AuthService struct {
	creds            *CredentialStore
	tokens           *TokenService
	allowAdminSignup bool
}

// NewAuthService creates a new AuthService. Unless allowAdminSignup is set,
// registrations asking for the admin role are rejected.
func NewAuthService(creds *CredentialStore, tokens *TokenService, allowAdminSignup bool) *AuthService {
	return &AuthService{
		creds:            creds,
		tokens:           tokens,
		allowAdminSignup: allowAdminSignup,
	}
}

// Register validates the input, creates the account and returns it with a
// freshly minted token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.UserView, string, error) {
	if err := asValidationError(in.Validate()); err != nil {
		return domain.UserView{}, "", err
	}

	role := domain.DefaultRole
	if in.Role != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return domain.UserView{}, "", domain.NewValidationError("role", "must be a valid value")
		}
		role = parsed
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return domain.UserView{}, "", domain.NewValidationError("role", "admin accounts cannot be self-registered")
	}

	user, err := s.creds.Create(ctx, in.Email, in.Password, role)
	if err != nil {
		return domain.UserView{}, "", err
	}

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return domain.UserView{}, "", fmt.Errorf("mint token: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// Login verifies credentials, records the login time and returns the user
// with a new token. Unknown emails and wrong passwords both yield
// domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.UserView, string, error) {
	user, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.creds.CompareDummy(password)
			return domain.UserView{}, "", domain.ErrUnauthorized
		}
		return domain.UserView{}, "", fmt.Errorf("get user: %w", err)
	}

	if !s.creds.ValidatePassword(user, password) {
		return domain.UserView{}, "", domain.ErrUnauthorized
	}

	if err := s.creds.TouchLastLogin(ctx, user.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted between lookup and touch.
			return domain.UserView{}, "", domain.ErrUnauthorized
		}
		return domain.UserView{}, "", fmt.Errorf("touch last login: %w", err)
	}

	view, err := s.creds.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserView{}, "", domain.ErrUnauthorized
		}
		return domain.UserView{}, "", fmt.Errorf("reload user: %w", err)
	}

	token, err := s.tokens.Mint(view.ID)
	if err != nil {
		return domain.UserView{}, "", fmt.Errorf("mint token: %w", err)
	}

	slog.Info("user logged in", "user_id", view.ID)
	return view, token, nil
}

// Authenticate resolves a bearer token to the current state of its user.
// It returns an error matching domain.ErrInvalidToken when the token does
// not verify, and domain.ErrNotFound when the user has since been deleted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.UserView, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return domain.UserView{}, err
	}
	return s.creds.FindByID(ctx, userID)
}

// SeedAdmin creates an admin account unless the email is already taken.
// It reports whether an account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	in := RegisterInput{Email: email, Password: password, Role: string(domain.RoleAdmin)}
	if err := asValidationError(in.Validate()); err != nil {
		return false, err
	}

	user, err := s.creds.Create(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	slog.Info("admin account seeded", "user_id", user.ID)
	return true, nil
}
