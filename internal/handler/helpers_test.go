package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msomdec/gatekeeper/internal/handler"
	"github.com/msomdec/gatekeeper/internal/repository/memory"
	"github.com/msomdec/gatekeeper/internal/service"
)

const (
	testJWTSecret     = "test-secret-for-handler-tests-0123456789"
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "adminpass123"
)

type testApp struct {
	auth     *service.AuthService
	accounts *service.AccountService
	creds    *service.CredentialStore
	tokens   *service.TokenService
	srv      *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Use cost 4 for fast tests.
	creds := service.NewCredentialStore(memory.NewUserRepository(), 4)
	tokens := service.NewTokenService([]byte(testJWTSecret), 24*time.Hour)
	app := &testApp{
		auth:     service.NewAuthService(creds, tokens, false),
		accounts: service.NewAccountService(creds),
		creds:    creds,
		tokens:   tokens,
	}
	if _, err := app.auth.SeedAdmin(context.Background(), testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	app.srv = httptest.NewServer(handler.NewRouter(app.auth, app.accounts))
	t.Cleanup(app.srv.Close)
	return app
}

type apiResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r apiResponse) decode(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(r.Body, &m); err != nil {
		t.Fatalf("decode body %q: %v", r.Body, err)
	}
	return m
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) apiResponse {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return apiResponse{Status: resp.StatusCode, Header: resp.Header, Body: data}
}

// register creates an account over the API and returns its id and token.
func (a *testApp) register(t *testing.T, email, password string) (string, string) {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.Status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, resp.Status, resp.Body)
	}
	body := resp.decode(t)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

// login returns a fresh token for the given credentials.
func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, resp.Status, resp.Body)
	}
	return resp.decode(t)["token"].(string)
}

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	return a.login(t, testAdminEmail, testAdminPassword)
}

func assertErrorKind(t *testing.T, resp apiResponse, status int, kind string) map[string]any {
	t.Helper()
	if resp.Status != status {
		t.Fatalf("expected status %d, got %d: %s", status, resp.Status, resp.Body)
	}
	body := resp.decode(t)
	if body["kind"] != kind {
		t.Fatalf("expected kind %q, got %v", kind, body["kind"])
	}
	if _, ok := body["error"].(string); !ok {
		t.Fatalf("expected error message, got %v", body)
	}
	return body
}
