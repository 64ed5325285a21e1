package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/gatekeeper/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore is the single writer of user records. It owns email
// normalization and password hashing, and hands out UserView projections
// everywhere except FindByEmail, which serves the login path.
type CredentialStore struct {
	users      domain.UserRepository
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewCredentialStore creates a CredentialStore over users, hashing with
// bcrypt at the given cost.
func NewCredentialStore(users domain.UserRepository, bcryptCost int, opts ...Option) *CredentialStore {
	s := applyOptions(opts)
	return &CredentialStore{
		users:      users,
		bcryptCost: bcryptCost,
		now:        s.now,
	}
}

// Create hashes rawPassword and stores a new user. It fails with
// domain.ErrConflict when the normalized email is already registered.
func (s *CredentialStore) Create(ctx context.Context, email, rawPassword string, role domain.Role) (domain.UserView, error) {
	if role == "" {
		role = domain.DefaultRole
	}

	// Hash before touching the repository so the slow part never runs
	// inside its critical section.
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), s.bcryptCost)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        domain.NormalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.UserView{}, fmt.Errorf("create user: %w", err)
	}
	return user.View(), nil
}

// FindByEmail returns the full internal record, password hash included.
// Only the login path may call it; the result must never reach a client.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
}

// FindByID returns the projection of the user with the given id.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (domain.UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.UserView{}, err
	}
	return user.View(), nil
}

// ValidatePassword reports whether rawPassword matches the user's hash.
func (s *CredentialStore) ValidatePassword(user *domain.User, rawPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(rawPassword)) == nil
}

// CompareDummy spends one bcrypt comparison against a throwaway hash, so a
// login for an unknown email takes as long as one with a wrong password.
func (s *CredentialStore) CompareDummy(rawPassword string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(rawPassword))
}

// TouchLastLogin stamps the current time as the user's last login.
func (s *CredentialStore) TouchLastLogin(ctx context.Context, id string) error {
	return s.users.TouchLastLogin(ctx, id, s.now().UTC())
}

// UpdateEmail changes a user's email, rejecting addresses owned by anyone
// else with domain.ErrConflict.
func (s *CredentialStore) UpdateEmail(ctx context.Context, id, newEmail string) (domain.UserView, error) {
	user, err := s.users.UpdateEmail(ctx, id, domain.NormalizeEmail(newEmail))
	if err != nil {
		return domain.UserView{}, fmt.Errorf("update email: %w", err)
	}
	return user.View(), nil
}

// UpdateRole changes a user's role. Authorization is the caller's job.
func (s *CredentialStore) UpdateRole(ctx context.Context, id string, role domain.Role) (domain.UserView, error) {
	user, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("update role: %w", err)
	}
	return user.View(), nil
}

// Update applies the email and role changes together in one store write.
// Nil arguments are left unchanged. Authorization is the caller's job.
func (s *CredentialStore) Update(ctx context.Context, id string, email *string, role *domain.Role) (domain.UserView, error) {
	patch := domain.UserPatch{Role: role}
	if email != nil {
		normalized := domain.NormalizeEmail(*email)
		patch.Email = &normalized
	}
	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("update user: %w", err)
	}
	return user.View(), nil
}

// Delete removes the user with the given id.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListAll returns every user in insertion order.
func (s *CredentialStore) ListAll(ctx context.Context) ([]domain.UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	views := make([]domain.UserView, len(users))
	for i := range users {
		views[i] = users[i].View()
	}
	return views, nil
}
