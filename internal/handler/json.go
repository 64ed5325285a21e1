package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const maxBodyBytes = 1 << 20

// Error kinds carried in the "kind" field of every error response.
const (
	kindUnauthorized = "unauthorized"
	kindInvalidToken = "invalid_token"
	kindForbidden    = "forbidden"
	kindNotFound     = "not_found"
	kindConflict     = "conflict"
	kindValidation   = "validation"
	kindInternal     = "internal"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error    string        `json:"error"`
	Kind     string        `json:"kind"`
	Details  []fieldDetail `json:"details,omitempty"`
	Required []string      `json:"required,omitempty"`
	Current  string        `json:"current,omitempty"`
}

type fieldDetail struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code, kind and message.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

// readJSON decodes the request body into the given destination.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
