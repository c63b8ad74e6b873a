package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"shift-backend/internal/middleware"
	"shift-backend/internal/models"
	"shift-backend/internal/repositories"
	"shift-backend/internal/storage"
	"shift-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// 10 MB per photo
const maxUploadSize = 10 << 20

type AttachmentHandler struct {
	Repo    *repositories.AttachmentRepository
	Storage *storage.Client
}

func NewAttachmentHandler(repo *repositories.AttachmentRepository, storageClient *storage.Client) *AttachmentHandler {
	return &AttachmentHandler{
		Repo:    repo,
		Storage: storageClient,
	}
}

// Upload stores a cleaning photo. The attachment starts unlinked; the ids
// returned here go into the complete-cleaning request to associate them.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.Storage == nil {
		http.Error(w, "Attachment storage not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "File too large or invalid form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("attachments/%s/%s%s",
		timeutil.Now().Format("2006/01"),
		uuid.NewString(),
		filepath.Ext(header.Filename),
	)

	if err := h.Storage.Upload(r.Context(), key, contentType, file); err != nil {
		http.Error(w, "Upload failed", http.StatusBadGateway)
		return
	}

	attachment := &models.Attachment{
		ObjectKey:   key,
		FileName:    header.Filename,
		ContentType: contentType,
		UploadedBy:  userID,
	}
	if err := h.Repo.Create(r.Context(), attachment); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, attachment)
}

// ListByCleaning returns the attachments linked to a completed cleaning
func (h *AttachmentHandler) ListByCleaning(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cleaningID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid cleaning id", http.StatusBadRequest)
		return
	}

	attachments, err := h.Repo.ListByCleaning(r.Context(), cleaningID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if attachments == nil {
		attachments = []*models.Attachment{}
	}
	writeJSON(w, http.StatusOK, attachments)
}
