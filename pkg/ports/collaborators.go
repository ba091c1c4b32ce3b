package ports

import (
	"context"

	"github.com/farehop/farehop/pkg/domain"
)

// FlightProvider is the external flight-search collaborator. Responses are
// treated as opaque documents apart from the fields the core reads; failures
// surface as *domain.CollaboratorError.
type FlightProvider interface {
	SearchFlights(ctx context.Context, q domain.FlightQuery) (*domain.FlightSearchResult, error)
	Airport(ctx context.Context, iata string) (*domain.Airport, error)
}

// PlaceProvider is the external sightseeing-search collaborator.
type PlaceProvider interface {
	SearchPlaces(ctx context.Context, q domain.SightQuery) (*domain.SightSearchResult, error)
}

// PaymentGateway opens and settles checkout sessions.
type PaymentGateway interface {
	CreateSession(ctx context.Context, items []domain.LineItem, metadata map[string]string) (*domain.CheckoutSession, error)
	RetrieveSession(ctx context.Context, id string) (*domain.SessionStatus, error)
}

// BookingRepository is durable persistence for finalized bookings. Commit
// writes the booking and its payment as one transaction; a failure leaves no
// partial state behind.
type BookingRepository interface {
	Commit(ctx context.Context, b *domain.Booking, p *domain.Payment) error
	FindBooking(ctx context.Context, ref string) (*domain.Booking, error)
	FindPayments(ctx context.Context, bookingRef string) ([]domain.Payment, error)
}

// MailSender delivers notification mail. Fire-and-forget: a send failure
// after the durable commit is a degraded success, never a rollback trigger.
type MailSender interface {
	SendMail(ctx context.Context, to, from, subject, htmlBody string) error
}
