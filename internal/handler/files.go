package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/purrfectmatch/api/internal/domain"
	"github.com/purrfectmatch/api/internal/service"
)

// FileHandler serves stored photo and avatar bytes.
type FileHandler struct {
	files *service.FileService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// HandleServe serves file bytes with the stored Content-Type. Photos and
// avatars are public, like any image on the marketplace.
// GET /api/files/{key}
func (h *FileHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.files.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		slog.Error("serve file", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
