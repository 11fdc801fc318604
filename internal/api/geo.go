package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ecoleta/ecoleta/internal/geo"
)

// GeoHandler exposes the state and city lookup lists used by the point form.
type GeoHandler struct {
	Client *geo.Client
}

// States handles GET /geo/states.
func (h *GeoHandler) States(w http.ResponseWriter, r *http.Request) {
	states, err := h.Client.ListStates(r.Context())
	if err != nil {
		slog.Error("failed to list states", "error", err)
		jsonError(w, http.StatusBadGateway, "failed to reach geography service")
		return
	}
	if states == nil {
		states = []geo.State{}
	}
	jsonResponse(w, http.StatusOK, states)
}

// Cities handles GET /geo/states/{uf}/cities.
func (h *GeoHandler) Cities(w http.ResponseWriter, r *http.Request) {
	uf := strings.ToUpper(strings.TrimSpace(r.PathValue("uf")))
	if len(uf) != 2 {
		jsonError(w, http.StatusBadRequest, "invalid state")
		return
	}

	cities, err := h.Client.ListCities(r.Context(), uf)
	if err != nil {
		slog.Error("failed to list cities", "uf", uf, "error", err)
		jsonError(w, http.StatusBadGateway, "failed to reach geography service")
		return
	}
	if cities == nil {
		cities = []string{}
	}
	jsonResponse(w, http.StatusOK, cities)
}
