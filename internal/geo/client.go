// Package geo looks up Brazilian states and cities from the IBGE localities API.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultBaseURL is the public IBGE localities API.
const DefaultBaseURL = "https://servicodados.ibge.gov.br/api/v1/localidades"

// State is a federative unit.
type State struct {
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
}

// ibgeState and ibgeCity are shaped for the API response.
type ibgeState struct {
	ID    int    `json:"id"`
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

type ibgeCity struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}

// Client calls the localities API. Responses are not cached and failed calls
// are not retried.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a Client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ListStates returns every state sorted by abbreviation.
func (c *Client) ListStates(ctx context.Context) ([]State, error) {
	var raw []ibgeState
	if err := c.get(ctx, "/estados", &raw); err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}

	states := make([]State, len(raw))
	for i, s := range raw {
		states[i] = State{Abbreviation: s.Sigla, Name: s.Nome}
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Abbreviation < states[j].Abbreviation
	})
	return states, nil
}

// ListCities returns the names of the cities in the state with the given
// abbreviation, in API order.
func (c *Client) ListCities(ctx context.Context, uf string) ([]string, error) {
	uf = strings.TrimSpace(uf)
	if uf == "" {
		return nil, fmt.Errorf("listing cities: state abbreviation required")
	}

	var raw []ibgeCity
	if err := c.get(ctx, "/estados/"+url.PathEscape(uf)+"/municipios", &raw); err != nil {
		return nil, fmt.Errorf("listing cities of %s: %w", uf, err)
	}

	cities := make([]string, len(raw))
	for i, city := range raw {
		cities[i] = city.Nome
	}
	return cities, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
