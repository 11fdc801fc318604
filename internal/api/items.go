package api

import (
	"log/slog"
	"net/http"

	"github.com/ecoleta/ecoleta/internal/db"
	"github.com/ecoleta/ecoleta/internal/store"
)

// ItemsHandler serves the catalog of collectable item types.
type ItemsHandler struct {
	DB        *db.DB
	PublicURL string
}

// List handles GET /items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, itemResponse{
			ID:       it.ID,
			Title:    it.Title,
			ImageURL: imageURL(h.PublicURL, it.Image),
		})
	}
	jsonResponse(w, http.StatusOK, resp)
}
