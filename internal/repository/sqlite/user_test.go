package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/gatekeeper/internal/domain"
)

func sampleUser(id, email string) *domain.User {
	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash-" + id,
		Role:         domain.RoleUser,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	if err := users.Create(ctx, sampleUser("u1", "a@x.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "a@x.com" || got.Role != domain.RoleUser || got.PasswordHash != "hash-u1" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !got.CreatedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at round trip: got %v", got.CreatedAt)
	}
	if got.LastLoginAt != nil {
		t.Fatalf("expected nil last login, got %v", got.LastLoginAt)
	}

	byEmail, err := users.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Fatalf("expected u1, got %s", byEmail.ID)
	}

	if _, err := users.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := users.GetByEmail(ctx, "missing@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	if err := users.Create(ctx, sampleUser("u1", "dup@x.com")); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if err := users.Create(ctx, sampleUser("u2", "dup@x.com")); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserRepository_UpdateEmail(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	for _, u := range []*domain.User{sampleUser("u1", "a@x.com"), sampleUser("u2", "b@x.com")} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if _, err := users.UpdateEmail(ctx, "u1", "b@x.com"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := users.UpdateEmail(ctx, "nobody", "z@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, err := users.UpdateEmail(ctx, "u1", "c@x.com")
	if err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if updated.Email != "c@x.com" {
		t.Fatalf("expected c@x.com, got %s", updated.Email)
	}
	if _, err := users.UpdateEmail(ctx, "u2", "b@x.com"); err != nil {
		t.Fatalf("re-setting own email should succeed: %v", err)
	}
}

func TestUserRepository_UpdateIsAllOrNothing(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	for _, u := range []*domain.User{sampleUser("u1", "a@x.com"), sampleUser("u2", "b@x.com")} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	taken, admin := "b@x.com", domain.RoleAdmin
	if _, err := users.Update(ctx, "u1", domain.UserPatch{Email: &taken, Role: &admin}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "a@x.com" || got.Role != domain.RoleUser {
		t.Fatalf("failed update left partial changes: %s %s", got.Email, got.Role)
	}

	fresh := "c@x.com"
	updated, err := users.Update(ctx, "u1", domain.UserPatch{Email: &fresh, Role: &admin})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != fresh || updated.Role != domain.RoleAdmin {
		t.Fatalf("expected both fields written, got %s %s", updated.Email, updated.Role)
	}

	// An empty patch leaves the record untouched.
	same, err := users.Update(ctx, "u1", domain.UserPatch{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if same.Email != fresh || same.Role != domain.RoleAdmin {
		t.Fatalf("empty patch changed the record: %s %s", same.Email, same.Role)
	}
}

func TestUserRepository_UpdateRoleTouchDelete(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	if err := users.Create(ctx, sampleUser("u1", "a@x.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u, err := users.UpdateRole(ctx, "u1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %s", u.Role)
	}

	at := time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)
	if err := users.TouchLastLogin(ctx, "u1", at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	u, err = users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.LastLoginAt == nil || !u.LastLoginAt.Equal(at) {
		t.Fatalf("expected last login %v, got %v", at, u.LastLoginAt)
	}
	if err := users.TouchLastLogin(ctx, "nobody", at); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := users.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := users.Delete(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUserRepository_ListInsertionOrder(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	want := []string{"zed", "alpha", "mid"}
	for _, id := range want {
		if err := users.Create(ctx, sampleUser(id, id+"@x.com")); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	list, err := users.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != len(want) {
		t.Fatalf("expected %d users, got %d", len(want), len(list))
	}
	for i, u := range list {
		if u.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], u.ID)
		}
	}

	n, err := users.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	users := newTestDB(t).Users()
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = users.Create(ctx, sampleUser(fmt.Sprintf("u%d", i), "race@x.com"))
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one success, got %d", ok)
	}
}
