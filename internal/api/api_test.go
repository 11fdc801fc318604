package api

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoleta/ecoleta/internal/db"
	"github.com/ecoleta/ecoleta/internal/events"
	"github.com/ecoleta/ecoleta/internal/geo"
	"github.com/ecoleta/ecoleta/internal/geoindex"
	"github.com/ecoleta/ecoleta/internal/metrics"
	"github.com/ecoleta/ecoleta/internal/model"
	"github.com/ecoleta/ecoleta/internal/storage"
	"github.com/ecoleta/ecoleta/internal/store"
)

const testPublicURL = "http://localhost:3333"

type testEnv struct {
	server    *httptest.Server
	db        *db.DB
	uploadDir string
	recorder  *events.Recorder
	index     *geoindex.Index
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)

	uploadDir := t.TempDir()
	disk, err := storage.NewDisk(uploadDir)
	require.NoError(t, err)

	geoServer := newFakeGeo(t)
	recorder := &events.Recorder{}
	index := geoindex.New()
	m := metrics.New()

	router := NewRouter(Deps{
		DB:             database,
		Storage:        disk,
		Geo:            geo.NewClient(geoServer.URL),
		Index:          index,
		Events:         events.NewPublisher(recorder),
		Metrics:        m,
		PublicURL:      testPublicURL,
		MaxUploadBytes: 1 << 20,
	})
	server := httptest.NewServer(Wrap(router, m, []string{"*"}))
	t.Cleanup(server.Close)

	return &testEnv{server: server, db: database, uploadDir: uploadDir, recorder: recorder, index: index}
}

func newFakeGeo(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /estados", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":31,"sigla":"MG","nome":"Minas Gerais"},{"id":12,"sigla":"AC","nome":"Acre"}]`))
	})
	mux.HandleFunc("GET /estados/MG/municipios", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":3106200,"nome":"Belo Horizonte"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{52, 203, 121, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// hugePNG is a tiny PNG whose header claims 20000x20000 pixels.
func hugePNG(t *testing.T) []byte {
	t.Helper()
	data := append([]byte(nil), testPNG(t)...)
	binary.BigEndian.PutUint32(data[16:20], 20000)
	binary.BigEndian.PutUint32(data[20:24], 20000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

// pointForm returns valid form fields for a point; tests override what they need.
func pointForm(overrides map[string]string) map[string]string {
	fields := map[string]string{
		"name":      "Acme",
		"email":     "contact@acme.test",
		"whatsapp":  "5531999990000",
		"latitude":  "-19.9167",
		"longitude": "-43.9345",
		"city":      "X",
		"state":     "Y",
		"items":     "1,2",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	return fields
}

func postPoint(t *testing.T, baseURL string, fields map[string]string, img []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		fw, err := mw.CreateFormFile("image", "Acme Storefront.png")
		require.NoError(t, err)
		_, err = fw.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/points", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createPoint(t *testing.T, env *testEnv, overrides map[string]string) createPointResponse {
	t.Helper()
	resp := postPoint(t, env.server.URL, pointForm(overrides), testPNG(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created createPointResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func getJSON(t *testing.T, url string, target any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func deletePoint(t *testing.T, url string) bool {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out["success"]
}

func TestListItems(t *testing.T) {
	env := setupTestServer(t)

	var items []itemResponse
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/items", &items))
	require.Len(t, items, len(db.DefaultItems))
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "Lâmpadas", items[0].Title)
	assert.Equal(t, testPublicURL+"/uploads/lampadas.svg", items[0].ImageURL)
}

func TestCreatePointFlow(t *testing.T) {
	env := setupTestServer(t)

	created := createPoint(t, env, nil)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Acme", created.Name)
	assert.Equal(t, "X", created.City)
	assert.Equal(t, "Y", created.State)
	assert.InDelta(t, -19.9167, created.Latitude, 1e-9)
	assert.True(t, strings.HasSuffix(created.Image, "-acme-storefront.jpg"), created.Image)

	// Listing by state and items finds it.
	var listed []pointResponse
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/points?state=Y&items=1,2", &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, testPublicURL+"/uploads/"+created.Image, listed[0].ImageURL)

	// Detail carries the item titles in id order.
	var detail pointDetailResponse
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/points/"+itoa(created.ID), &detail))
	assert.Equal(t, "Acme", detail.Point.Name)
	assert.Equal(t, "contact@acme.test", detail.Point.Email)
	assert.Equal(t, []model.ItemTitle{{Title: "Lâmpadas"}, {Title: "Pilhas e Baterias"}}, detail.Items)

	// The stored photo is served back as JPEG.
	resp, err := http.Get(env.server.URL + "/uploads/" + created.Image)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "image/jpeg", http.DetectContentType(data))

	assert.Equal(t, 1, env.index.Len())
	recorded := env.recorder.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.TypePointCreated, recorded[0].Type)
}

func TestListPointsFilters(t *testing.T) {
	env := setupTestServer(t)
	a := createPoint(t, env, map[string]string{"name": "A", "city": "Belo Horizonte", "state": "MG", "items": "1"})
	b := createPoint(t, env, map[string]string{"name": "B", "city": "Contagem", "state": "MG", "items": "2,3"})
	c := createPoint(t, env, map[string]string{"name": "C", "city": "Rio Branco", "state": "AC", "items": "1,3"})

	tests := []struct {
		query string
		want  []int64
	}{
		{"", []int64{a.ID, b.ID, c.ID}},
		{"?state=MG", []int64{a.ID, b.ID}},
		{"?state=MG&city=Contagem", []int64{b.ID}},
		{"?items=1", []int64{a.ID, c.ID}},
		{"?items=3&state=AC", []int64{c.ID}},
		{"?items=1,3", []int64{a.ID, b.ID, c.ID}},
		{"?items=abc", []int64{}},
		{"?items=4", []int64{}},
		{"?city=Nowhere", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var listed []pointResponse
			require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/points"+tt.query, &listed))
			ids := []int64{}
			for _, p := range listed {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGetPointNotFound(t *testing.T) {
	env := setupTestServer(t)

	for _, id := range []string{"12345", "abc"} {
		var body map[string]string
		status := getJSON(t, env.server.URL+"/points/"+id, &body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, map[string]string{"message": "Point not found"}, body)
	}
}

func TestDeletePoint(t *testing.T) {
	env := setupTestServer(t)
	created := createPoint(t, env, nil)
	url := env.server.URL + "/points/" + itoa(created.ID)

	assert.True(t, deletePoint(t, url))
	assert.False(t, deletePoint(t, url))
	assert.False(t, deletePoint(t, env.server.URL+"/points/abc"))

	assert.Equal(t, http.StatusBadRequest, getJSON(t, url, nil))
	assert.Equal(t, 0, env.index.Len())

	resp, err := http.Get(env.server.URL + "/uploads/" + created.Image)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	recorded := env.recorder.Events()
	require.Len(t, recorded, 2)
	assert.Equal(t, events.TypePointDeleted, recorded[1].Type)
}

func TestCreatePointRejectsBadInput(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
	}{
		{"missing image", pointForm(nil), nil},
		{"not an image", pointForm(nil), []byte("plain text, not a picture")},
		{"bad latitude", pointForm(map[string]string{"latitude": "north"}), testPNG(t)},
		{"bad longitude", pointForm(map[string]string{"longitude": ""}), testPNG(t)},
		{"bad items", pointForm(map[string]string{"items": "1,x"}), testPNG(t)},
		{"no items", pointForm(map[string]string{"items": ""}), testPNG(t)},
		{"blank items", pointForm(map[string]string{"items": " , "}), testPNG(t)},
		{"huge declared size", pointForm(nil), hugePNG(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postPoint(t, env.server.URL, tt.fields, tt.image)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	var listed []pointResponse
	getJSON(t, env.server.URL+"/points", &listed)
	assert.Empty(t, listed)
	assert.Empty(t, env.recorder.Events())
}

func TestCreatePointUnknownItemRollsBack(t *testing.T) {
	env := setupTestServer(t)

	resp := postPoint(t, env.server.URL, pointForm(map[string]string{"items": "1,999"}), testPNG(t))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// Listing hides points without items, so check the table directly.
	all, err := store.ListAllPoints(context.Background(), env.db)
	require.NoError(t, err)
	assert.Empty(t, all)

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "image of a failed create should be removed")
	assert.Equal(t, 0, env.index.Len())
}

func TestRepeatedReadsAreIdempotent(t *testing.T) {
	env := setupTestServer(t)
	created := createPoint(t, env, nil)

	for _, path := range []string{"/items", "/points?state=Y", "/points/" + itoa(created.ID)} {
		first := rawGet(t, env.server.URL+path)
		second := rawGet(t, env.server.URL+path)
		assert.Equal(t, first, second, path)
	}
}

func rawGet(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestNearbyPoints(t *testing.T) {
	env := setupTestServer(t)
	// Praça da Liberdade and Praça Sete are about 2 km apart; Rio is ~340 km away.
	near := createPoint(t, env, map[string]string{"name": "Liberdade", "latitude": "-19.9321", "longitude": "-43.9380"})
	mid := createPoint(t, env, map[string]string{"name": "Sete", "latitude": "-19.9191", "longitude": "-43.9386"})
	far := createPoint(t, env, map[string]string{"name": "Rio", "latitude": "-22.9068", "longitude": "-43.1729"})

	base := env.server.URL + "/points/nearby?latitude=-19.9320&longitude=-43.9381"

	var hits []nearbyPointResponse
	require.Equal(t, http.StatusOK, getJSON(t, base, &hits))
	require.Len(t, hits, 2)
	assert.Equal(t, near.ID, hits[0].ID)
	assert.Equal(t, mid.ID, hits[1].ID)
	assert.Less(t, hits[0].DistanceKm, hits[1].DistanceKm)

	hits = nil
	require.Equal(t, http.StatusOK, getJSON(t, base+"&radius=500", &hits))
	require.Len(t, hits, 3)
	assert.Equal(t, far.ID, hits[2].ID)

	hits = nil
	require.Equal(t, http.StatusOK, getJSON(t, base+"&limit=1", &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, near.ID, hits[0].ID)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, env.server.URL+"/points/nearby?latitude=x&longitude=1", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"&radius=-1", nil))
}

func TestGeoProxy(t *testing.T) {
	env := setupTestServer(t)

	var states []geo.State
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/geo/states", &states))
	assert.Equal(t, []geo.State{{Abbreviation: "AC", Name: "Acre"}, {Abbreviation: "MG", Name: "Minas Gerais"}}, states)

	var cities []string
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/geo/states/mg/cities", &cities))
	assert.Equal(t, []string{"Belo Horizonte"}, cities)

	assert.Equal(t, http.StatusBadGateway, getJSON(t, env.server.URL+"/geo/states/SP/cities", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, env.server.URL+"/geo/states/MGX/cities", nil))
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestServer(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/healthz", &health))
	assert.Equal(t, "ok", health["status"])

	getJSON(t, env.server.URL+"/items", nil)
	body := rawGet(t, env.server.URL+"/metrics")
	assert.Contains(t, body, `ecoleta_http_requests_total{method="GET",route="GET /items",status="200"} 1`)
}

func TestCORSHeaders(t *testing.T) {
	env := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/items", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUploadsRejectsUnknownNames(t *testing.T) {
	env := setupTestServer(t)

	for _, name := range []string{"missing.jpg", "..", "%2e%2e%2fsecret"} {
		resp, err := http.Get(env.server.URL + "/uploads/" + name)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, name)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
