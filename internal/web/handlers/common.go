package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/image-to-pdf/internal/assembler"
	"github.com/kozaktomas/image-to-pdf/internal/collection"
	"github.com/kozaktomas/image-to-pdf/internal/crop"
	"github.com/kozaktomas/image-to-pdf/internal/layout"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondCommandError maps a workspace error to a status code.
func respondCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collection.ErrNotFound):
		respondError(w, http.StatusNotFound, "image not found")
	case errors.Is(err, collection.ErrOutOfRange),
		errors.Is(err, collection.ErrEmptyBinary),
		errors.Is(err, workspace.ErrInvalidName),
		errors.Is(err, workspace.ErrInvalidTheme),
		errors.Is(err, layout.ErrInvalidDimensions):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, collection.ErrTornDown):
		respondError(w, http.StatusGone, "session has ended")
	case errors.Is(err, crop.ErrCropFailure),
		errors.Is(err, assembler.ErrEmptyDocument):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a JSON request body into v and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
