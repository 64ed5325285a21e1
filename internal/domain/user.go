package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role is the access level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = RoleUser

// Roles lists every known role in display order.
var Roles = []Role{RoleUser, RoleAdmin}

// ParseRole converts s into a known Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// User is the internal user record. It carries the password hash and must
// never be serialized; use View to hand it to anything outside the store.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// UserView is a User without credential material.
type UserView struct {
	ID          string
	Email       string
	Role        Role
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// View projects u into a UserView.
func (u *User) View() UserView {
	v := UserView{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		v.LastLoginAt = &t
	}
	return v
}

// IsAdmin reports whether the viewed user holds the admin role.
func (v UserView) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// NormalizeEmail returns the canonical form used for storage and lookups.
// Emails compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch holds the mutable fields of a user. Nil fields are left as is.
type UserPatch struct {
	Email *string
	Role  *Role
}

// UserRepository defines persistence operations for users. Every method is
// a single atomic unit: implementations enforce email uniqueness inside the
// same critical section (or statement) that writes the record.
type UserRepository interface {
	// Create inserts user. It returns ErrConflict when the email is taken.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpdateEmail returns ErrNotFound for an unknown id and ErrConflict when
	// email belongs to a different user.
	UpdateEmail(ctx context.Context, id, email string) (*User, error)
	UpdateRole(ctx context.Context, id string, role Role) (*User, error)
	// Update applies every field set in patch as one write: either all of
	// them land or none do.
	Update(ctx context.Context, id string, patch UserPatch) (*User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// List returns all users in insertion order.
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
}
