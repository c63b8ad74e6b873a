package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"shift-backend/internal/middleware"
	"shift-backend/internal/services"
	"shift-backend/internal/timeutil"

	"github.com/gorilla/mux"
)

type HistoryHandler struct {
	Projection *services.ProjectionService
	Reports    *services.ReportService
	Users      *services.UserService
}

func NewHistoryHandler(projection *services.ProjectionService, reports *services.ReportService, users *services.UserService) *HistoryHandler {
	return &HistoryHandler{
		Projection: projection,
		Reports:    reports,
		Users:      users,
	}
}

// ShiftHistory returns the user's shifts, newest first
func (h *HistoryHandler) ShiftHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rows, err := h.Projection.ShiftHistory(r.Context(), userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// CleaningHistory returns the cleanings nested under one shift
func (h *HistoryHandler) CleaningHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	shiftID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid shift id", http.StatusBadRequest)
		return
	}

	rows, err := h.Projection.CleaningHistory(r.Context(), shiftID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ShiftTimesheet downloads the user's shift history as PDF or CSV
func (h *HistoryHandler) ShiftTimesheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Users.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	filename := fmt.Sprintf("timesheet_%d_%s", userID, timeutil.Now().Format("2006-01-02"))

	switch r.URL.Query().Get("format") {
	case "csv":
		data, err := h.Reports.GenerateTimesheetCSV(r.Context(), user)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		w.Write(data)
	default:
		data, err := h.Reports.GenerateTimesheetPDF(r.Context(), user)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		w.Write(data)
	}
}
