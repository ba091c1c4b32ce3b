// Package flights implements the external search collaborators: the flight
// provider client with its airport metadata cache, and the sightseeing place
// provider client. Provider responses are passed through as opaque documents
// apart from the fields the core reads.
package flights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/ports"
)

// airportCacheTTL is deliberately long: airport metadata changes rarely.
const airportCacheTTL = 30 * 24 * time.Hour

// Client implements ports.FlightProvider against a provider REST API.
// Airport lookups are cached in the ephemeral store so repeated searches do
// not re-query the provider for static metadata.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   ports.KeyValueStore
}

// NewClient creates a flight provider client. The http.Client timeout bounds
// every provider call; a timeout surfaces as a collaborator error like any
// other provider failure.
func NewClient(baseURL, apiKey string, cache ports.KeyValueStore) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
	}
}

// SearchFlights queries the provider and returns its offers.
func (c *Client) SearchFlights(ctx context.Context, q domain.FlightQuery) (*domain.FlightSearchResult, error) {
	var result domain.FlightSearchResult
	if err := c.post(ctx, "/v1/flights/search", q, &result); err != nil {
		return nil, err
	}
	result.Query = q
	return &result, nil
}

// Airport returns airport metadata, from the cache when possible.
func (c *Client) Airport(ctx context.Context, iata string) (*domain.Airport, error) {
	cacheKey := "airports_" + iata

	if cached, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
		var a domain.Airport
		if json.Unmarshal([]byte(cached), &a) == nil {
			return &a, nil
		}
		// A cache entry that does not parse is dropped by simply
		// rewriting it below.
	}

	var a domain.Airport
	if err := c.get(ctx, "/v1/airports/"+iata, &a); err != nil {
		return nil, err
	}

	if data, err := json.Marshal(a); err == nil {
		// A cache write failure is not a lookup failure.
		_ = c.cache.Set(ctx, cacheKey, string(data), airportCacheTTL)
	}
	return &a, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.CollaboratorError{Collaborator: "flight-provider", Err: err}
	}
	defer resp.Body.Close()

	return decodeCollaborator("flight-provider", resp, out)
}

// providerError is the structured error shape the providers return.
type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// decodeCollaborator maps a collaborator HTTP response onto out, turning
// non-2xx statuses into CollaboratorError. 4xx responses with a structured
// body are client faults and carry the provider's detail through.
func decodeCollaborator(name string, resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &domain.CollaboratorError{Collaborator: name, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var pe providerError
		detail := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &pe) == nil && pe.Error.Message != "" {
			detail = pe.Error.Message
		}
		return &domain.CollaboratorError{
			Collaborator: name,
			Detail:       detail,
			ClientFault:  resp.StatusCode >= 400 && resp.StatusCode < 500,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.CollaboratorError{
			Collaborator: name,
			Detail:       "undecodable response body",
			Err:          err,
		}
	}
	return nil
}
