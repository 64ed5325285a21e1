package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/gatekeeper/internal/domain"
	"github.com/msomdec/gatekeeper/internal/repository/memory"
)

func newUser(id, email string) *domain.User {
	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash-" + id,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("u1", "a@x.com")))

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
	assert.Equal(t, "hash-u1", byEmail.PasswordHash)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("u1", "a@x.com")))
	err := repo.Create(ctx, newUser("u2", "a@x.com"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	u := newUser("u1", "a@x.com")
	require.NoError(t, repo.Create(ctx, u))
	u.Role = domain.RoleAdmin

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	got.Email = "mutated@x.com"

	again, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, again.Role)
	assert.Equal(t, "a@x.com", again.Email)
}

func TestUserRepository_UpdateEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@x.com")))
	require.NoError(t, repo.Create(ctx, newUser("u2", "b@x.com")))

	_, err := repo.UpdateEmail(ctx, "u1", "b@x.com")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.UpdateEmail(ctx, "nobody", "c@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := repo.UpdateEmail(ctx, "u1", "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", updated.Email)

	// The old address is released.
	_, err = repo.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, repo.Create(ctx, newUser("u3", "a@x.com")))

	// Re-setting one's own email is not a conflict.
	_, err = repo.UpdateEmail(ctx, "u2", "b@x.com")
	assert.NoError(t, err)
}

func TestUserRepository_UpdateRoleAndTouch(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@x.com")))

	u, err := repo.UpdateRole(ctx, "u1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = repo.UpdateRole(ctx, "nobody", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.TouchLastLogin(ctx, "u1", at))
	u, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.LastLoginAt)
	assert.True(t, u.LastLoginAt.Equal(at))

	assert.ErrorIs(t, repo.TouchLastLogin(ctx, "nobody", at), domain.ErrNotFound)
}

func TestUserRepository_UpdateIsAllOrNothing(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@x.com")))
	require.NoError(t, repo.Create(ctx, newUser("u2", "b@x.com")))

	taken, admin := "b@x.com", domain.RoleAdmin
	_, err := repo.Update(ctx, "u1", domain.UserPatch{Email: &taken, Role: &admin})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, domain.RoleUser, got.Role)

	fresh := "c@x.com"
	updated, err := repo.Update(ctx, "u1", domain.UserPatch{Email: &fresh, Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, fresh, updated.Email)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	_, err = repo.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Update(ctx, "nobody", domain.UserPatch{Role: &admin})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_DeleteKeepsOrder(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		require.NoError(t, repo.Create(ctx, newUser(fmt.Sprintf("u%d", i), fmt.Sprintf("%d@x.com", i))))
	}

	require.NoError(t, repo.Delete(ctx, "u2"))
	assert.ErrorIs(t, repo.Delete(ctx, "u2"), domain.ErrNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	assert.Equal(t, []string{"u1", "u3", "u4"}, ids)

	// The deleted user's email can be registered again.
	assert.NoError(t, repo.Create(ctx, newUser("u5", "2@x.com")))
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, newUser(fmt.Sprintf("u%d", i), "race@x.com"))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestUserRepository_CancelledContext(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Create(ctx, newUser("u1", "a@x.com"))
	assert.ErrorIs(t, err, context.Canceled)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
