package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ecoleta/ecoleta/internal/storage"
)

// UploadsHandler serves stored point photos and item icons.
type UploadsHandler struct {
	Storage storage.Storage
}

// Get handles GET /uploads/{name}.
func (h *UploadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !storage.ValidName(name) {
		http.NotFound(w, r)
		return
	}

	body, info, err := h.Storage.Get(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to read upload", "name", name, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer body.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("failed to stream upload", "name", name, "error", err)
	}
}
