package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farehop/farehop/internal/adapters/payment"
	"github.com/farehop/farehop/pkg/domain"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)

		var req struct {
			LineItems []domain.LineItem `json:"lineItems"`
			Metadata  map[string]string `json:"metadata"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.LineItems, 1)
		assert.Equal(t, "u1", req.Metadata["subjectId"])

		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://pay.example/cs_123"}`))
	}))
	defer srv.Close()

	client := payment.NewClient(srv.URL, "sk_test")

	session, err := client.CreateSession(context.Background(),
		[]domain.LineItem{{Description: "Flight TP88", Amount: domain.Money{Amount: 145000, Currency: "EUR"}, Quantity: 1}},
		map[string]string{"subjectId": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://pay.example/cs_123", session.URL)
}

func TestRetrieveSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions/cs_123", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id":"cs_123","status":"complete","amount_total":145000,
			"currency":"eur","payment_method_types":["card"],"created":1704103200
		}`))
	}))
	defer srv.Close()

	client := payment.NewClient(srv.URL, "sk_test")

	status, err := client.RetrieveSession(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.True(t, status.Paid())
	assert.Equal(t, int64(145000), status.AmountTotal)
	assert.Equal(t, []string{"card"}, status.PaymentMethodTypes)
}

func TestGatewayClientFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"No such checkout session","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := payment.NewClient(srv.URL, "sk_test")

	_, err := client.RetrieveSession(context.Background(), "cs_missing")
	var collab *domain.CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.True(t, collab.ClientFault)
	assert.Contains(t, collab.Detail, "No such checkout session")
}
