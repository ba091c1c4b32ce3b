package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/farehop/farehop/internal/logging"
	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/ports"
	"github.com/farehop/farehop/pkg/relay"
)

// FlightService runs the flight chain: Search, Select, CheckoutInit and the
// terminal CheckoutConfirm. Every non-terminal operation stages its output
// and hands a continuation token back; only CheckoutConfirm writes durable
// records.
type FlightService struct {
	relay    *relay.Store
	provider ports.FlightProvider
	gateway  ports.PaymentGateway
	repo     ports.BookingRepository
	mail     ports.MailSender
	logger   *slog.Logger
	now      func() time.Time
	mailFrom string
}

// FlightServiceOption configures the service.
type FlightServiceOption func(*FlightService)

// WithLogger configures the service logger.
func WithLogger(logger *slog.Logger) FlightServiceOption {
	return func(s *FlightService) { s.logger = logger }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) { s.now = now }
}

// WithMailFrom sets the sender address on confirmation mail.
func WithMailFrom(from string) FlightServiceOption {
	return func(s *FlightService) { s.mailFrom = from }
}

// NewFlightService builds the service over its injected collaborators.
func NewFlightService(
	rs *relay.Store,
	provider ports.FlightProvider,
	gateway ports.PaymentGateway,
	repo ports.BookingRepository,
	mail ports.MailSender,
	opts ...FlightServiceOption,
) *FlightService {
	s := &FlightService{
		relay:    rs,
		provider: provider,
		gateway:  gateway,
		repo:     repo,
		mail:     mail,
		logger:   logging.NewNop(),
		now:      time.Now,
		mailFrom: "bookings@farehop.example",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchOutput carries the staged result set and its continuation token.
type SearchOutput struct {
	Token   string               `json:"token"`
	Flights []domain.FlightOffer `json:"flightsResult"`
}

// Search queries the provider, stages the result under the subject's day
// bucket, and returns the Search token. Anonymous subjects get a per-request
// nonce so they never collide with each other.
func (s *FlightService) Search(ctx context.Context, subjectID string, q domain.FlightQuery) (*SearchOutput, error) {
	result, err := s.provider.SearchFlights(ctx, q)
	if err != nil {
		return nil, err
	}

	token, err := stageOutput(ctx, s.relay, domain.StageSearch, subjectID, anonNonce(subjectID), result)
	if err != nil {
		return nil, err
	}

	s.logger.Info("staged flight search", "subject", subjectID, "flights", len(result.Flights))
	return &SearchOutput{Token: token, Flights: result.Flights}, nil
}

// SelectOutput carries the narrowed selection and the Select token.
type SelectOutput struct {
	Token  string             `json:"token"`
	Flight domain.FlightOffer `json:"flightInfo"`
}

// Select resolves a Search token, carves the chosen offer out of the staged
// result set, and stages it as a new, narrower record. The Search record is
// left untouched and keeps expiring on its own TTL.
func (s *FlightService) Select(ctx context.Context, subjectID, searchToken, flightID string) (*SelectOutput, error) {
	var results domain.FlightSearchResult
	if err := resolveUpstream(ctx, s.relay, domain.StageSelect, []string{searchToken}, []any{&results}); err != nil {
		return nil, err
	}

	offer, ok := results.Offer(flightID)
	if !ok {
		return nil, fmt.Errorf("%w: flight %q", domain.ErrUnknownItem, flightID)
	}

	selection := domain.FlightSelection{FlightInfo: offer, SelectedAt: s.now()}
	token, err := stageOutput(ctx, s.relay, domain.StageSelect, subjectID, flightID, selection)
	if err != nil {
		return nil, err
	}

	return &SelectOutput{Token: token, Flight: offer}, nil
}

// CheckoutInput is the validated billing information for CheckoutInit.
type CheckoutInput struct {
	Contact domain.Contact
	Billing domain.BillingAddress
}

// CheckoutOutput carries the CheckoutInit token and the gateway redirect.
type CheckoutOutput struct {
	Token      string `json:"token"`
	PaymentURL string `json:"paymentUrl"`
}

// CheckoutInit resolves the Select token, opens a payment-gateway session
// for the offer's price, and stages the booking draft.
func (s *FlightService) CheckoutInit(ctx context.Context, subjectID, selectToken string, in CheckoutInput) (*CheckoutOutput, error) {
	var selection domain.FlightSelection
	if err := resolveUpstream(ctx, s.relay, domain.StageCheckoutInit, []string{selectToken}, []any{&selection}); err != nil {
		return nil, err
	}

	flight := selection.FlightInfo
	session, err := s.gateway.CreateSession(ctx,
		[]domain.LineItem{{
			Description: fmt.Sprintf("Flight %s %s-%s", flight.FlightNumber, flight.Origin, flight.Destination),
			Amount:      flight.Price,
			Quantity:    1,
		}},
		map[string]string{
			"subjectId": subjectID,
			"flightId":  flight.ID,
		},
	)
	if err != nil {
		return nil, err
	}

	draft := domain.BookingDraft{
		Flight:    flight,
		Contact:   in.Contact,
		Billing:   in.Billing,
		SessionID: session.ID,
		Amount:    flight.Price,
		CreatedAt: s.now(),
	}

	// Drafts are nano-bucketed, so identified subjects need no disambiguator;
	// anonymous checkouts still need their own nonce.
	token, err := stageOutput(ctx, s.relay, domain.StageCheckoutInit, subjectID, anonNonce(subjectID), draft)
	if err != nil {
		return nil, err
	}

	s.logger.Info("opened checkout", "subject", subjectID, "flight", flight.ID, "session", session.ID)
	return &CheckoutOutput{Token: token, PaymentURL: session.URL}, nil
}

// ConfirmOutput reports the committed booking. MailDeferred marks a
// degraded success: the booking is final but the confirmation mail did not
// go out.
type ConfirmOutput struct {
	BookingRef   string `json:"bookingRef"`
	Status       string `json:"status"`
	MailDeferred bool   `json:"mailDeferred,omitempty"`
}

// CheckoutConfirm is the terminal stage. It resolves both upstream tokens
// before any side effect, verifies the gateway session settled, commits the
// Booking and Payment records in one transaction, and sends the confirmation
// mail. An expired token aborts before anything durable is written.
func (s *FlightService) CheckoutConfirm(ctx context.Context, subjectID, selectToken, checkoutToken string) (*ConfirmOutput, error) {
	var selection domain.FlightSelection
	var draft domain.BookingDraft
	if err := resolveUpstream(ctx, s.relay, domain.StageCheckoutConfirm,
		[]string{selectToken, checkoutToken}, []any{&selection, &draft}); err != nil {
		return nil, err
	}

	status, err := s.gateway.RetrieveSession(ctx, draft.SessionID)
	if err != nil {
		return nil, err
	}
	if !status.Paid() {
		return nil, &domain.CollaboratorError{
			Collaborator: "payment-gateway",
			Detail:       fmt.Sprintf("session %s is %q, not settled", draft.SessionID, status.Status),
			ClientFault:  true,
		}
	}

	flight := selection.FlightInfo
	booking := &domain.Booking{
		Ref:          uuid.NewString(),
		SubjectID:    subjectID,
		FlightID:     flight.ID,
		Carrier:      flight.Carrier,
		FlightNumber: flight.FlightNumber,
		Origin:       flight.Origin,
		Destination:  flight.Destination,
		DepartAt:     flight.DepartAt,
		ContactName:  draft.Contact.Name,
		ContactEmail: draft.Contact.Email,
		Amount:       draft.Amount,
		Status:       domain.BookingConfirmed,
		CreatedAt:    s.now(),
	}

	method := ""
	if len(status.PaymentMethodTypes) > 0 {
		method = status.PaymentMethodTypes[0]
	}
	payment := &domain.Payment{
		ID:         uuid.NewString(),
		BookingRef: booking.Ref,
		SessionID:  draft.SessionID,
		Status:     domain.PaymentSucceeded,
		Amount:     domain.Money{Amount: status.AmountTotal, Currency: status.Currency},
		Method:     method,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Commit(ctx, booking, payment); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	out := &ConfirmOutput{BookingRef: booking.Ref, Status: string(booking.Status)}

	// The booking is already final; a mail failure is a degraded success,
	// never a rollback.
	if err := s.mail.SendMail(ctx, booking.ContactEmail, s.mailFrom, confirmationSubject(booking), confirmationBody(booking)); err != nil {
		s.logger.Warn("confirmation mail failed", "booking", booking.Ref, "error", err)
		out.MailDeferred = true
	}

	s.logger.Info("booking committed", "booking", booking.Ref, "subject", subjectID, "flight", flight.ID)
	return out, nil
}

func confirmationSubject(b *domain.Booking) string {
	return fmt.Sprintf("Booking %s confirmed: %s to %s", b.Ref[:8], b.Origin, b.Destination)
}

func confirmationBody(b *domain.Booking) string {
	return fmt.Sprintf(
		`<h1>Your booking is confirmed</h1>
<p>Reference: <strong>%s</strong></p>
<p>%s flight %s, %s to %s, departing %s.</p>
<p>Total: %d.%02d %s</p>`,
		b.Ref, b.Carrier, b.FlightNumber, b.Origin, b.Destination,
		b.DepartAt.Format(time.RFC1123),
		b.Amount.Amount/100, b.Amount.Amount%100, b.Amount.Currency,
	)
}
