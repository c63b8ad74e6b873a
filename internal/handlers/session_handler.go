package handlers

import (
	"encoding/json"
	"net/http"

	"shift-backend/internal/cache"
	"shift-backend/internal/middleware"
	"shift-backend/internal/models"
	"shift-backend/internal/services"

	"github.com/gorilla/mux"
)

type SessionHandler struct {
	Sessions   *services.SessionService
	Projection *services.ProjectionService
}

func NewSessionHandler(sessions *services.SessionService, projection *services.ProjectionService) *SessionHandler {
	return &SessionHandler{
		Sessions:   sessions,
		Projection: projection,
	}
}

// StartShift opens a shift at the scanned location
func (h *SessionHandler) StartShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.Sessions.StartShift(r.Context(), userID, req.QRPayload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// EndShift closes the active shift
func (h *SessionHandler) EndShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.Sessions.EndShift(r.Context(), userID, req.WithScan)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ActiveShift returns the current shift, or 404 when none is open
func (h *SessionHandler) ActiveShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sess, err := h.Projection.ActiveShift(r.Context(), userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "no active shift", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// StartCleaning opens a cleaning nested under the active shift
func (h *SessionHandler) StartCleaning(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.Sessions.StartCleaning(r.Context(), userID, req.QRPayload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// EndCleaning closes the active cleaning
func (h *SessionHandler) EndCleaning(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.Sessions.EndCleaning(r.Context(), userID, req.WithScan)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// PauseCleaning toggles the active cleaning between paused and active
func (h *SessionHandler) PauseCleaning(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sess, err := h.Sessions.PauseToggleCleaning(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// CompleteCleaning closes the active cleaning with summary notes and
// attachment links
func (h *SessionHandler) CompleteCleaning(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CompleteCleaningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.Sessions.CompleteCleaning(r.Context(), userID, req.Notes, req.AttachmentIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ActiveCleaning returns the current cleaning under the user's shift
func (h *SessionHandler) ActiveCleaning(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	shift, err := h.Projection.ActiveShiftEvent(r.Context(), userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if shift == nil {
		http.Error(w, "no active shift", http.StatusNotFound)
		return
	}

	sess, err := h.Projection.ActiveCleaning(r.Context(), shift.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "no active cleaning", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// CachedSession returns the mirrored session view for quick resume after a
// reload. The mirror is advisory; clients should reconcile against the
// active endpoints.
func (h *SessionHandler) CachedSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	kind := mux.Vars(r)["kind"]
	if kind != string(models.SessionShift) && kind != string(models.SessionCleaning) {
		http.Error(w, "unknown session kind", http.StatusBadRequest)
		return
	}

	data, ok := cache.GetSessionMirror(r.Context(), kind, userID)
	if !ok {
		http.Error(w, "no cached session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
