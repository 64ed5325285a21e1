package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/gatekeeper/internal/service"
)

// UserHandler handles the user-management endpoints.
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// HandleList returns every user in registration order.
// GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	users, err := h.accounts.List(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, "list users", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": toUserDTOs(users),
	})
}

// HandleStats returns aggregate counts over all users.
// GET /api/users/stats/overview
func (h *UserHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	stats, err := h.accounts.Stats(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, "user stats", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats": toStatsDTO(stats),
	})
}

// HandleGet returns a single user.
// GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	user, err := h.accounts.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "get user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleUpdate changes a user's email and, for admins, role.
// PUT /api/users/{id}
// Request: {"email":"...","role":"..."} (both optional)
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	var req service.UpdateInput
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, kindValidation, "Invalid request body.")
		return
	}

	user, err := h.accounts.Update(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, "update user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    toUserDTO(user),
	})
}

// HandleDelete removes a user. Admins cannot delete themselves.
// DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	if err := h.accounts.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, "delete user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User deleted successfully",
	})
}
