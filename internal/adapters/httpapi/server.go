// Package httpapi exposes the booking workflow over HTTP. Handlers receive
// already-validated fields plus the resolved subject identifier and delegate
// to the workflow services; every failure goes through the uniform error
// mapping in errors.go.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farehop/farehop/internal/logging"
	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/ports"
	"github.com/farehop/farehop/pkg/workflow"
)

// FlightFlow is the flight-chain surface the server drives.
type FlightFlow interface {
	Search(ctx context.Context, subjectID string, q domain.FlightQuery) (*workflow.SearchOutput, error)
	Select(ctx context.Context, subjectID, searchToken, flightID string) (*workflow.SelectOutput, error)
	CheckoutInit(ctx context.Context, subjectID, selectToken string, in workflow.CheckoutInput) (*workflow.CheckoutOutput, error)
	CheckoutConfirm(ctx context.Context, subjectID, selectToken, checkoutToken string) (*workflow.ConfirmOutput, error)
}

// SightFlow is the sightseeing-chain surface.
type SightFlow interface {
	Search(ctx context.Context, subjectID string, q domain.SightQuery) (*workflow.SightSearchOutput, error)
	Select(ctx context.Context, subjectID, searchToken, placeID string) (*workflow.SightSelectOutput, error)
}

// Pinger is implemented by backends the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes requests to the workflow services.
type Server struct {
	flights  FlightFlow
	sights   SightFlow
	bookings ports.BookingRepository
	logger   *slog.Logger
	health   map[string]Pinger
	registry *prometheus.Registry
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithHealthCheck registers a named backend on /healthz.
func WithHealthCheck(name string, p Pinger) Option {
	return func(s *Server) { s.health[name] = p }
}

// WithMetricsRegistry exposes the registry on /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// NewHandler builds the HTTP handler for the booking API.
func NewHandler(flights FlightFlow, sights SightFlow, bookings ports.BookingRepository, opts ...Option) http.Handler {
	s := &Server{
		flights:  flights,
		sights:   sights,
		bookings: bookings,
		logger:   logging.NewNop(),
		health:   make(map[string]Pinger),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/flights/search", s.flightSearch)
		r.Post("/flights/select", s.flightSelect)
		r.Post("/checkout", s.checkoutInit)
		r.Post("/checkout/confirm", s.checkoutConfirm)
		r.Post("/sights/search", s.sightSearch)
		r.Post("/sights/select", s.sightSelect)
		r.Get("/bookings/{ref}", s.getBooking)
	})

	r.Get("/healthz", s.healthz)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Subject-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// subjectID returns the authenticated subject resolved by the upstream auth
// layer. Empty means an anonymous-but-permitted flow.
func subjectID(r *http.Request) string {
	return r.Header.Get("X-Subject-ID")
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeValidationError(w, "invalid request body")
		return false
	}
	return true
}

type flightSearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"departDate"`
	Passengers  int    `json:"passengers"`
}

func (s *Server) flightSearch(w http.ResponseWriter, r *http.Request) {
	var req flightSearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Origin == "" || req.Destination == "" {
		s.writeValidationError(w, "origin and destination are required")
		return
	}
	if req.Passengers <= 0 {
		req.Passengers = 1
	}

	out, err := s.flights.Search(r.Context(), subjectID(r), domain.FlightQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		DepartDate:  req.DepartDate,
		Passengers:  req.Passengers,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

type flightSelectRequest struct {
	SearchToken string `json:"searchToken"`
	FlightID    string `json:"flightId"`
}

func (s *Server) flightSelect(w http.ResponseWriter, r *http.Request) {
	var req flightSelectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SearchToken == "" || req.FlightID == "" {
		s.writeValidationError(w, "searchToken and flightId are required")
		return
	}

	out, err := s.flights.Select(r.Context(), subjectID(r), req.SearchToken, req.FlightID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

type checkoutRequest struct {
	SelectToken string                `json:"selectToken"`
	Contact     domain.Contact        `json:"contact"`
	Billing     domain.BillingAddress `json:"billing"`
}

func (s *Server) checkoutInit(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SelectToken == "" {
		s.writeValidationError(w, "selectToken is required")
		return
	}
	if req.Contact.Email == "" {
		s.writeValidationError(w, "contact.email is required")
		return
	}

	out, err := s.flights.CheckoutInit(r.Context(), subjectID(r), req.SelectToken, workflow.CheckoutInput{
		Contact: req.Contact,
		Billing: req.Billing,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

type confirmRequest struct {
	SelectToken   string `json:"selectToken"`
	CheckoutToken string `json:"checkoutToken"`
}

func (s *Server) checkoutConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SelectToken == "" || req.CheckoutToken == "" {
		s.writeValidationError(w, "selectToken and checkoutToken are required")
		return
	}

	out, err := s.flights.CheckoutConfirm(r.Context(), subjectID(r), req.SelectToken, req.CheckoutToken)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, out)
}

type sightSearchRequest struct {
	City     string `json:"city"`
	Category string `json:"category"`
}

func (s *Server) sightSearch(w http.ResponseWriter, r *http.Request) {
	var req sightSearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.City == "" {
		s.writeValidationError(w, "city is required")
		return
	}

	out, err := s.sights.Search(r.Context(), subjectID(r), domain.SightQuery{
		City:     req.City,
		Category: req.Category,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

type sightSelectRequest struct {
	SearchToken string `json:"searchToken"`
	PlaceID     string `json:"placeId"`
}

func (s *Server) sightSelect(w http.ResponseWriter, r *http.Request) {
	var req sightSelectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SearchToken == "" || req.PlaceID == "" {
		s.writeValidationError(w, "searchToken and placeId are required")
		return
	}

	out, err := s.sights.Select(r.Context(), subjectID(r), req.SearchToken, req.PlaceID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	booking, err := s.bookings.FindBooking(r.Context(), ref)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, booking)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.health))
	for name, p := range s.health {
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			s.logger.Warn("health check failed", "backend", name, "error", err)
			continue
		}
		checks[name] = "up"
	}
	s.writeJSON(w, status, map[string]any{"checks": checks})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
