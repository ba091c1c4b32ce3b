// Package payment implements ports.PaymentGateway against a checkout-session
// REST API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/farehop/farehop/pkg/domain"
)

// Client is the payment-gateway collaborator.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a gateway client. The http.Client timeout bounds every
// gateway call.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

type createSessionRequest struct {
	LineItems []domain.LineItem `json:"lineItems"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type sessionResponse struct {
	ID                 string   `json:"id"`
	URL                string   `json:"url"`
	Status             string   `json:"status"`
	AmountTotal        int64    `json:"amount_total"`
	Currency           string   `json:"currency"`
	PaymentMethodTypes []string `json:"payment_method_types"`
	Created            int64    `json:"created"`
}

// CreateSession opens a checkout session for the given line items.
func (c *Client) CreateSession(ctx context.Context, items []domain.LineItem, metadata map[string]string) (*domain.CheckoutSession, error) {
	var resp sessionResponse
	err := c.call(ctx, http.MethodPost, "/v1/checkout/sessions", createSessionRequest{
		LineItems: items,
		Metadata:  metadata,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &domain.CheckoutSession{ID: resp.ID, URL: resp.URL}, nil
}

// RetrieveSession fetches the settlement state of a session.
func (c *Client) RetrieveSession(ctx context.Context, id string) (*domain.SessionStatus, error) {
	var resp sessionResponse
	if err := c.call(ctx, http.MethodGet, "/v1/checkout/sessions/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.SessionStatus{
		Status:             resp.Status,
		AmountTotal:        resp.AmountTotal,
		Currency:           resp.Currency,
		PaymentMethodTypes: resp.PaymentMethodTypes,
		Created:            time.Unix(resp.Created, 0).UTC(),
	}, nil
}

type gatewayError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.CollaboratorError{Collaborator: "payment-gateway", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &domain.CollaboratorError{Collaborator: "payment-gateway", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ge gatewayError
		detail := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
			detail = ge.Error.Message
		}
		return &domain.CollaboratorError{
			Collaborator: "payment-gateway",
			Detail:       detail,
			ClientFault:  resp.StatusCode >= 400 && resp.StatusCode < 500,
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.CollaboratorError{
			Collaborator: "payment-gateway",
			Detail:       "undecodable response body",
			Err:          err,
		}
	}
	return nil
}
