package flights

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/farehop/farehop/pkg/domain"
)

// PlaceClient implements ports.PlaceProvider against a maps/places REST API.
type PlaceClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewPlaceClient creates a place provider client.
func NewPlaceClient(baseURL, apiKey string) *PlaceClient {
	return &PlaceClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchPlaces queries the provider for sightseeing results.
func (c *PlaceClient) SearchPlaces(ctx context.Context, q domain.SightQuery) (*domain.SightSearchResult, error) {
	params := url.Values{"city": {q.City}}
	if q.Category != "" {
		params.Set("category", q.Category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/places?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.CollaboratorError{Collaborator: "place-provider", Err: err}
	}
	defer resp.Body.Close()

	var result domain.SightSearchResult
	if err := decodeCollaborator("place-provider", resp, &result); err != nil {
		return nil, err
	}
	result.Query = q
	return &result, nil
}
