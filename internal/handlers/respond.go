package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"shift-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeServiceError maps session command errors to HTTP status codes.
// Precondition failures are conflicts or not-founds; anything else is a
// failed log write and surfaces as a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyActive), errors.Is(err, services.ErrCleaningStillOpen):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNoActiveSession), errors.Is(err, services.ErrNoActiveShift):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
