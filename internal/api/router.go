package api

import (
	"net/http"

	"github.com/ecoleta/ecoleta/internal/db"
	"github.com/ecoleta/ecoleta/internal/events"
	"github.com/ecoleta/ecoleta/internal/geo"
	"github.com/ecoleta/ecoleta/internal/geoindex"
	"github.com/ecoleta/ecoleta/internal/metrics"
	"github.com/ecoleta/ecoleta/internal/storage"
)

// Deps are the collaborators shared by the handlers. DB and Storage are
// required; the rest fall back to inert defaults.
type Deps struct {
	DB             *db.DB
	Storage        storage.Storage
	Geo            *geo.Client
	Index          *geoindex.Index
	Events         *events.Publisher
	Metrics        *metrics.Metrics
	PublicURL      string
	MaxUploadBytes int64
}

func (d *Deps) defaults() {
	if d.Geo == nil {
		d.Geo = geo.NewClient("")
	}
	if d.Index == nil {
		d.Index = geoindex.New()
	}
	if d.Events == nil {
		d.Events = events.NewPublisher(nil)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	d.defaults()

	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{DB: d.DB, PublicURL: d.PublicURL}
	pointsHandler := &PointsHandler{
		DB:             d.DB,
		Storage:        d.Storage,
		Index:          d.Index,
		Events:         d.Events,
		Metrics:        d.Metrics,
		PublicURL:      d.PublicURL,
		MaxUploadBytes: d.MaxUploadBytes,
	}
	uploadsHandler := &UploadsHandler{Storage: d.Storage}
	geoHandler := &GeoHandler{Client: d.Geo}
	healthHandler := &HealthHandler{DB: d.DB}

	mux.HandleFunc("GET /items", itemsHandler.List)

	mux.HandleFunc("GET /points", pointsHandler.List)
	mux.HandleFunc("POST /points", pointsHandler.Create)
	mux.HandleFunc("GET /points/nearby", pointsHandler.Nearby)
	mux.HandleFunc("GET /points/{id}", pointsHandler.Get)
	mux.HandleFunc("DELETE /points/{id}", pointsHandler.Delete)

	mux.HandleFunc("GET /uploads/{name}", uploadsHandler.Get)

	mux.HandleFunc("GET /geo/states", geoHandler.States)
	mux.HandleFunc("GET /geo/states/{uf}/cities", geoHandler.Cities)

	mux.HandleFunc("GET /healthz", healthHandler.Check)
	mux.Handle("GET /metrics", d.Metrics.Handler())

	return mux
}

// Wrap applies the middleware chain the server runs with. Metrics sit inside
// logging and outside CORS so preflight requests are counted as unmatched.
func Wrap(h http.Handler, m *metrics.Metrics, origins []string) http.Handler {
	return LoggingMiddleware(MetricsMiddleware(m)(CORSMiddleware(origins)(h)))
}
