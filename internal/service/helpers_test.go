package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/gatekeeper/internal/domain"
	"github.com/msomdec/gatekeeper/internal/repository/memory"
	"github.com/msomdec/gatekeeper/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

// fakeClock is a settable time source shared by all services under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testServices struct {
	clock    *fakeClock
	creds    *service.CredentialStore
	tokens   *service.TokenService
	auth     *service.AuthService
	accounts *service.AccountService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	clock := newFakeClock()
	opt := service.WithClock(clock.Now)

	// Use cost 4 for fast tests.
	creds := service.NewCredentialStore(memory.NewUserRepository(), 4, opt)
	tokens := service.NewTokenService([]byte(testJWTSecret), 24*time.Hour, opt)
	return &testServices{
		clock:    clock,
		creds:    creds,
		tokens:   tokens,
		auth:     service.NewAuthService(creds, tokens, false),
		accounts: service.NewAccountService(creds, opt),
	}
}

func (s *testServices) mustCreate(t *testing.T, email string, role domain.Role) domain.UserView {
	t.Helper()
	u, err := s.creds.Create(context.Background(), email, "password123", role)
	if err != nil {
		t.Fatalf("Create %s: %v", email, err)
	}
	return u
}
