package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ecoleta/ecoleta/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response of the form {"message": "..."}.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"message": message})
}

// imageURL builds the public URL of an uploaded file.
func imageURL(publicURL, image string) string {
	return strings.TrimRight(publicURL, "/") + "/uploads/" + url.PathEscape(image)
}

type itemResponse struct {
	ID       int64  `json:"item_id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

type pointResponse struct {
	model.Point
	ImageURL string `json:"image_url"`
}

type pointDetailResponse struct {
	Point pointResponse     `json:"point"`
	Items []model.ItemTitle `json:"items"`
}

type createPointResponse struct {
	ID        int64   `json:"id"`
	Image     string  `json:"image"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	WhatsApp  string  `json:"whatsapp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	State     string  `json:"state"`
}

type nearbyPointResponse struct {
	pointResponse
	DistanceKm float64 `json:"distance_km"`
}
