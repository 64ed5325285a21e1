// Package memory provides a volatile, process-local user repository.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/msomdec/gatekeeper/internal/domain"
)

// UserRepository implements domain.UserRepository in memory. Records are
// kept in insertion order; byID and byEmail index into the same records.
// A single RWMutex guards all three so every check-then-write is atomic.
type UserRepository struct {
	mu      sync.RWMutex
	order   []*domain.User
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

// NewUserRepository creates an empty in-memory UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

var _ domain.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; ok {
		return fmt.Errorf("insert user: duplicate id %s", user.ID)
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrConflict
	}

	rec := clone(user)
	r.order = append(r.order, rec)
	r.byID[rec.ID] = rec
	r.byEmail[rec.Email] = rec
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(rec), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(rec), nil
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id, email string) (*domain.User, error) {
	return r.Update(ctx, id, domain.UserPatch{Email: &email})
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.Update(ctx, id, domain.UserPatch{Role: &role})
}

func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Email != nil {
		if owner, taken := r.byEmail[*patch.Email]; taken && owner.ID != id {
			return nil, domain.ErrConflict
		}
	}

	if patch.Email != nil {
		delete(r.byEmail, rec.Email)
		rec.Email = *patch.Email
		r.byEmail[rec.Email] = rec
	}
	if patch.Role != nil {
		rec.Role = *patch.Role
	}
	return clone(rec), nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.LastLoginAt = &at
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, rec.Email)
	r.order = slices.DeleteFunc(r.order, func(u *domain.User) bool { return u.ID == id })
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, len(r.order))
	for i, rec := range r.order {
		users[i] = *clone(rec)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order), nil
}

// clone copies u so callers never alias stored records.
func clone(u *domain.User) *domain.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
