package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/gatekeeper/internal/domain"
)

const internalErrorMessage = "An unexpected error occurred."

// writeServiceError maps an error returned by the service layer onto the
// HTTP error contract. Anything unrecognised is logged and reported as an
// opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := errorResponse{Error: "Validation failed", Kind: kindValidation}
		for _, field := range verr.FieldNames() {
			resp.Details = append(resp.Details, fieldDetail{Field: field, Msg: verr.Fields[field]})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrSelfDelete):
		writeError(w, http.StatusBadRequest, kindValidation, "Cannot delete your own account")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, kindValidation, "Invalid request.")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusForbidden, kindInvalidToken, "Invalid or expired token")
	case errors.Is(err, domain.ErrRoleChange):
		writeError(w, http.StatusForbidden, kindForbidden, "Only admins can change roles")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, kindForbidden, "Access denied")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, "User not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, kindConflict, "An account with that email already exists")
	default:
		slog.ErrorContext(r.Context(), op, "error", err)
		writeError(w, http.StatusInternalServerError, kindInternal, internalErrorMessage)
	}
}
