package http

import (
	"shift-backend/internal/events"
	"shift-backend/internal/handlers"
	"shift-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
	historyHandler *handlers.HistoryHandler,
	attachmentHandler *handlers.AttachmentHandler,
	healthHandler *handlers.HealthHandler,
	hub *events.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/healthz", healthHandler.Healthz).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Logout needs the authenticated user to close their sessions
	logoutAPI := r.PathPrefix("/auth/logout").Subrouter()
	logoutAPI.Use(authMiddleware.Authenticate)
	logoutAPI.HandleFunc("", authHandler.Logout).Methods("POST")

	// Shifts
	shiftsAPI := r.PathPrefix("/api/shifts").Subrouter()
	shiftsAPI.Use(authMiddleware.Authenticate)
	shiftsAPI.HandleFunc("/start", sessionHandler.StartShift).Methods("POST")
	shiftsAPI.HandleFunc("/end", sessionHandler.EndShift).Methods("POST")
	shiftsAPI.HandleFunc("/active", sessionHandler.ActiveShift).Methods("GET")
	shiftsAPI.HandleFunc("/history", historyHandler.ShiftHistory).Methods("GET")
	shiftsAPI.HandleFunc("/timesheet", historyHandler.ShiftTimesheet).Methods("GET")
	shiftsAPI.HandleFunc("/{id}/cleanings", historyHandler.CleaningHistory).Methods("GET")

	// Cleanings (always nested under the caller's active shift)
	cleaningsAPI := r.PathPrefix("/api/cleanings").Subrouter()
	cleaningsAPI.Use(authMiddleware.Authenticate)
	cleaningsAPI.HandleFunc("/start", sessionHandler.StartCleaning).Methods("POST")
	cleaningsAPI.HandleFunc("/end", sessionHandler.EndCleaning).Methods("POST")
	cleaningsAPI.HandleFunc("/pause", sessionHandler.PauseCleaning).Methods("POST")
	cleaningsAPI.HandleFunc("/complete", sessionHandler.CompleteCleaning).Methods("POST")
	cleaningsAPI.HandleFunc("/active", sessionHandler.ActiveCleaning).Methods("GET")
	cleaningsAPI.HandleFunc("/{id}/attachments", attachmentHandler.ListByCleaning).Methods("GET")

	// Attachments
	attachmentsAPI := r.PathPrefix("/api/attachments").Subrouter()
	attachmentsAPI.Use(authMiddleware.Authenticate)
	attachmentsAPI.HandleFunc("", attachmentHandler.Upload).Methods("POST")

	// Cached session mirror for fast resume after reload
	sessionAPI := r.PathPrefix("/api/session").Subrouter()
	sessionAPI.Use(authMiddleware.Authenticate)
	sessionAPI.HandleFunc("/cached/{kind}", sessionHandler.CachedSession).Methods("GET")

	// Websocket event feed
	wsAPI := r.PathPrefix("/ws/events").Subrouter()
	wsAPI.Use(authMiddleware.Authenticate)
	wsAPI.HandleFunc("", hub.ServeWS).Methods("GET")

	return r
}
