package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecoleta/ecoleta/internal/db"
)

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	DB *db.DB
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		slog.Error("health check failed", "error", err)
		jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
