package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/msomdec/gatekeeper/internal/domain"
	"github.com/msomdec/gatekeeper/internal/service"
)

type contextKey string

const userContextKey contextKey = "user"

const bearerPrefix = "Bearer "

// UserFromContext extracts the authenticated user from the request context.
// The boolean is false when the request did not pass through RequireAuth.
func UserFromContext(ctx context.Context) (domain.UserView, bool) {
	user, ok := ctx.Value(userContextKey).(domain.UserView)
	return user, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is case-sensitive and separated by exactly one space.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// RequireAuth is middleware that protects routes requiring authentication.
// It reads the bearer token, verifies it, loads the current state of the
// user and injects it into the request context.
func RequireAuth(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Access token required")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrInvalidToken):
					slog.DebugContext(r.Context(), "token rejected", "reason", err)
					writeError(w, http.StatusForbidden, kindInvalidToken, "Invalid or expired token")
				case errors.Is(err, domain.ErrNotFound):
					writeError(w, http.StatusNotFound, kindNotFound, "User not found")
				default:
					slog.ErrorContext(r.Context(), "authenticate request", "error", err)
					writeError(w, http.StatusInternalServerError, kindInternal, internalErrorMessage)
				}
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is middleware that admits only users holding one of roles.
// It must run after RequireAuth; without an identity it rejects with 401.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	required := make([]string, len(roles))
	for i, role := range roles {
		required[i] = string(role)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, kindUnauthorized, "Authentication required")
				return
			}
			if !slices.Contains(roles, user.Role) {
				writeJSON(w, http.StatusForbidden, errorResponse{
					Error:    "Insufficient permissions",
					Kind:     kindForbidden,
					Required: required,
					Current:  string(user.Role),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with its route pattern, status,
// duration and chi request id.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"route", routePattern(r),
			"status", statusOf(ww),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
