package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecoleta/ecoleta/internal/db"
	"github.com/ecoleta/ecoleta/internal/events"
	"github.com/ecoleta/ecoleta/internal/geoindex"
	"github.com/ecoleta/ecoleta/internal/imaging"
	"github.com/ecoleta/ecoleta/internal/metrics"
	"github.com/ecoleta/ecoleta/internal/model"
	"github.com/ecoleta/ecoleta/internal/storage"
	"github.com/ecoleta/ecoleta/internal/store"
)

const (
	msgPointNotFound = "Point not found"
	defaultRadiusKm  = 10.0
	// multipart fields besides the image are small; allow some slack on top
	// of the image limit for them.
	formOverhead = 64 << 10
)

// PointsHandler handles collection point endpoints.
type PointsHandler struct {
	DB             *db.DB
	Storage        storage.Storage
	Index          *geoindex.Index
	Events         *events.Publisher
	Metrics        *metrics.Metrics
	PublicURL      string
	MaxUploadBytes int64
}

func (h *PointsHandler) present(p model.Point) pointResponse {
	return pointResponse{Point: p, ImageURL: imageURL(h.PublicURL, p.Image)}
}

// List handles GET /points?city=&state=&items=.
func (h *PointsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.PointFilter{
		City:  strings.TrimSpace(q.Get("city")),
		State: strings.TrimSpace(q.Get("state")),
	}
	if q.Has("items") && strings.TrimSpace(q.Get("items")) != "" {
		f.ItemIDs = model.LenientIDList(q.Get("items"))
	}

	points, err := store.ListPoints(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list points", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list points")
		return
	}

	resp := make([]pointResponse, 0, len(points))
	for _, p := range points {
		resp = append(resp, h.present(p))
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Get handles GET /points/{id}.
func (h *PointsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, msgPointNotFound)
		return
	}

	detail, err := store.GetPoint(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get point", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get point")
		return
	}
	if detail == nil {
		jsonError(w, http.StatusBadRequest, msgPointNotFound)
		return
	}

	jsonResponse(w, http.StatusOK, pointDetailResponse{
		Point: h.present(detail.Point),
		Items: detail.Items,
	})
}

// Create handles POST /points with a multipart form: an "image" file plus
// name, email, whatsapp, latitude, longitude, city, state and items fields.
func (h *PointsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	np, err := parseNewPoint(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, imaging.DefaultOptions)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
			return
		}
		if errors.Is(err, imaging.ErrTooManyPixels) {
			jsonError(w, http.StatusBadRequest, "image dimensions too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	np.Image = storage.ObjectName(header.Filename)
	if err := h.Storage.Put(r.Context(), np.Image, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to store image", "name", np.Image, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}
	h.Metrics.UploadBytes.Observe(float64(len(photo.Data)))

	point, err := store.CreatePoint(r.Context(), h.DB, np)
	if err != nil {
		slog.Error("failed to create point", "error", err)
		h.discardImage(np.Image)
		jsonError(w, http.StatusInternalServerError, "failed to create point")
		return
	}

	h.Index.Put(*point)
	h.Metrics.PointsCreated.Inc()
	if err := h.Events.PointCreated(r.Context(), *point, np.ItemIDs); err != nil {
		slog.Error("failed to publish event", "type", events.TypePointCreated, "id", point.ID, "error", err)
	}

	jsonResponse(w, http.StatusCreated, createPointResponse{
		ID:        point.ID,
		Image:     point.Image,
		Name:      point.Name,
		Email:     point.Email,
		WhatsApp:  point.WhatsApp,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		City:      point.City,
		State:     point.State,
	})
}

func parseNewPoint(r *http.Request) (model.NewPoint, error) {
	np := model.NewPoint{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		WhatsApp: r.FormValue("whatsapp"),
		City:     r.FormValue("city"),
		State:    r.FormValue("state"),
	}

	var err error
	if np.Latitude, err = strconv.ParseFloat(strings.TrimSpace(r.FormValue("latitude")), 64); err != nil {
		return np, errors.New("invalid latitude")
	}
	if np.Longitude, err = strconv.ParseFloat(strings.TrimSpace(r.FormValue("longitude")), 64); err != nil {
		return np, errors.New("invalid longitude")
	}
	// A point without items would never show up in a listing.
	if np.ItemIDs, err = model.ParseIDList(r.FormValue("items")); err != nil || len(np.ItemIDs) == 0 {
		return np, errors.New("invalid items")
	}
	return np, nil
}

// Delete handles DELETE /points/{id}.
func (h *PointsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonResponse(w, http.StatusOK, map[string]bool{"success": false})
		return
	}

	point, err := store.DeletePoint(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to delete point", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete point")
		return
	}
	if point == nil {
		jsonResponse(w, http.StatusOK, map[string]bool{"success": false})
		return
	}

	h.Index.Remove(id)
	h.Metrics.PointsDeleted.Inc()
	h.discardImage(point.Image)
	if err := h.Events.PointDeleted(r.Context(), id); err != nil {
		slog.Error("failed to publish event", "type", events.TypePointDeleted, "id", id, "error", err)
	}

	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// discardImage removes an image nothing refers to any more. Failures only
// leave an orphaned file behind, so they are logged and otherwise ignored.
func (h *PointsHandler) discardImage(name string) {
	if !storage.ValidName(name) {
		return
	}
	if err := h.Storage.Delete(context.Background(), name); err != nil {
		slog.Warn("failed to remove image", "name", name, "error", err)
	}
}

// Nearby handles GET /points/nearby?latitude=&longitude=&radius=&limit=.
// Without limit it returns every point within radius km (default 10). With
// limit alone it returns the limit nearest points; with both, the nearest
// limit points inside the radius.
func (h *PointsHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil || lat < -90 || lat > 90 {
		jsonError(w, http.StatusBadRequest, "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil || lon < -180 || lon > 180 {
		jsonError(w, http.StatusBadRequest, "invalid longitude")
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	radius := defaultRadiusKm
	if v := q.Get("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil || radius <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid radius")
			return
		}
	}

	var hits []geoindex.Hit
	if limit > 0 && !q.Has("radius") {
		hits = h.Index.Nearest(lat, lon, limit)
	} else {
		hits = h.Index.Radius(lat, lon, radius)
		if limit > 0 && len(hits) > limit {
			hits = hits[:limit]
		}
	}

	resp := make([]nearbyPointResponse, 0, len(hits))
	for _, hit := range hits {
		resp = append(resp, nearbyPointResponse{
			pointResponse: h.present(hit.Point),
			DistanceKm:    hit.DistanceKm,
		})
	}
	jsonResponse(w, http.StatusOK, resp)
}
