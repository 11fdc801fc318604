package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeIBGE serves a tiny subset of the localities API.
func newFakeIBGE(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /estados", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":35,"sigla":"SP","nome":"São Paulo"},
			{"id":12,"sigla":"AC","nome":"Acre"},
			{"id":31,"sigla":"MG","nome":"Minas Gerais"}
		]`))
	})
	mux.HandleFunc("GET /estados/MG/municipios", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":3106200,"nome":"Belo Horizonte"},{"id":3170206,"nome":"Uberlândia"}]`))
	})
	mux.HandleFunc("GET /estados/XX/municipios", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListStatesSorted(t *testing.T) {
	srv := newFakeIBGE(t)
	client := NewClient(srv.URL)

	states, err := client.ListStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []State{
		{Abbreviation: "AC", Name: "Acre"},
		{Abbreviation: "MG", Name: "Minas Gerais"},
		{Abbreviation: "SP", Name: "São Paulo"},
	}, states)
}

func TestListCities(t *testing.T) {
	srv := newFakeIBGE(t)
	client := NewClient(srv.URL + "/")

	cities, err := client.ListCities(context.Background(), "MG")
	require.NoError(t, err)
	assert.Equal(t, []string{"Belo Horizonte", "Uberlândia"}, cities)
}

func TestListCitiesErrors(t *testing.T) {
	srv := newFakeIBGE(t)
	client := NewClient(srv.URL)

	_, err := client.ListCities(context.Background(), "XX")
	assert.Error(t, err, "5xx must surface as an error")

	_, err = client.ListCities(context.Background(), " ")
	assert.Error(t, err)
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL)
}
