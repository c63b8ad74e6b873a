package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"shift-backend/internal/cache"
	"shift-backend/internal/middleware"
	"shift-backend/internal/models"
	"shift-backend/internal/services"
)

type AuthHandler struct {
	Users    *services.UserService
	Sessions *services.SessionService
}

func NewAuthHandler(users *services.UserService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{
		Users:    users,
		Sessions: sessions,
	}
}

// Signup handles user registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	authResp, err := h.Users.Signup(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, authResp)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	authResp, err := h.Users.Login(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	h.Sessions.RecordLogin(r.Context(), authResp.User.ID)

	writeJSON(w, http.StatusOK, authResp)
}

// Logout force-closes the user's open sessions (cleaning first, then
// shift) and records the logout. This is the only cascading close.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Sessions.EndAllForUser(r.Context(), userID); err != nil {
		log.Printf("[Auth] closing sessions on logout for user %d failed: %v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.Sessions.RecordLogout(r.Context(), userID)
	cache.InvalidateSessionMirror(r.Context(), string(models.SessionShift), userID)
	cache.InvalidateSessionMirror(r.Context(), string(models.SessionCleaning), userID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
