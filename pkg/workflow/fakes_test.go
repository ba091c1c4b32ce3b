package workflow_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/farehop/farehop/pkg/domain"
)

// Fakes for the external collaborators. They record calls so scenario tests
// can assert on side effects (or their absence).

type fakeFlightProvider struct {
	result *domain.FlightSearchResult
	err    error
}

func (f *fakeFlightProvider) SearchFlights(ctx context.Context, q domain.FlightQuery) (*domain.FlightSearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	out.Query = q
	return &out, nil
}

func (f *fakeFlightProvider) Airport(ctx context.Context, iata string) (*domain.Airport, error) {
	return &domain.Airport{IATA: iata, Name: iata + " International"}, nil
}

type fakePlaceProvider struct {
	result *domain.SightSearchResult
	err    error
}

func (f *fakePlaceProvider) SearchPlaces(ctx context.Context, q domain.SightQuery) (*domain.SightSearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	out.Query = q
	return &out, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	created   []string
	sessions  map[string]domain.SessionStatus
	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: make(map[string]domain.SessionStatus)}
}

func (g *fakeGateway) CreateSession(ctx context.Context, items []domain.LineItem, metadata map[string]string) (*domain.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	id := "cs_test_" + time.Now().Format("150405.000000000")
	total := int64(0)
	currency := "EUR"
	for _, it := range items {
		total += it.Amount.Amount * int64(it.Quantity)
		currency = it.Amount.Currency
	}
	g.created = append(g.created, id)
	g.sessions[id] = domain.SessionStatus{
		Status:             "complete",
		AmountTotal:        total,
		Currency:           currency,
		PaymentMethodTypes: []string{"card"},
		Created:            time.Now(),
	}
	return &domain.CheckoutSession{ID: id, URL: "https://pay.example/" + id}, nil
}

func (g *fakeGateway) RetrieveSession(ctx context.Context, id string) (*domain.SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.sessions[id]
	if !ok {
		return nil, &domain.CollaboratorError{
			Collaborator: "payment-gateway",
			Detail:       "no such session",
			ClientFault:  true,
		}
	}
	return &st, nil
}

func (g *fakeGateway) markUnpaid(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.sessions[id]
	st.Status = "open"
	g.sessions[id] = st
}

func (g *fakeGateway) lastSession() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.created) == 0 {
		return ""
	}
	return g.created[len(g.created)-1]
}

type fakeRepo struct {
	mu       sync.Mutex
	bookings []domain.Booking
	payments []domain.Payment
	err      error
}

func (r *fakeRepo) Commit(ctx context.Context, b *domain.Booking, p *domain.Payment) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, *b)
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakeRepo) FindBooking(ctx context.Context, ref string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.Ref == ref {
			out := b
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) FindPayments(ctx context.Context, bookingRef string) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Payment
	for _, p := range r.payments {
		if p.BookingRef == bookingRef {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) count() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings), len(r.payments)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string // recipient addresses
	err  error
}

func (m *fakeMailer) SendMail(ctx context.Context, to, from, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.sent = append(m.sent, to)
	m.mu.Unlock()
	return nil
}

var errProviderDown = errors.New("provider unreachable")
