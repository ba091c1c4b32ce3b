package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/farehop/farehop/internal/logging"
	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/ports"
	"github.com/farehop/farehop/pkg/relay"
)

// SightService runs the sightseeing chain: SightSearch then SightSelect.
// The chain is purely ephemeral; nothing durable is written.
type SightService struct {
	relay    *relay.Store
	provider ports.PlaceProvider
	logger   *slog.Logger
	now      func() time.Time
}

// SightServiceOption configures the service.
type SightServiceOption func(*SightService)

// WithSightLogger configures the service logger.
func WithSightLogger(logger *slog.Logger) SightServiceOption {
	return func(s *SightService) { s.logger = logger }
}

// WithSightClock overrides the wall clock, for tests.
func WithSightClock(now func() time.Time) SightServiceOption {
	return func(s *SightService) { s.now = now }
}

// NewSightService builds the service over its injected collaborators.
func NewSightService(rs *relay.Store, provider ports.PlaceProvider, opts ...SightServiceOption) *SightService {
	s := &SightService{
		relay:    rs,
		provider: provider,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SightSearchOutput carries the staged places and their token.
type SightSearchOutput struct {
	Token  string         `json:"token"`
	Places []domain.Place `json:"placesResult"`
}

// Search queries the place provider and stages the result set.
func (s *SightService) Search(ctx context.Context, subjectID string, q domain.SightQuery) (*SightSearchOutput, error) {
	result, err := s.provider.SearchPlaces(ctx, q)
	if err != nil {
		return nil, err
	}

	token, err := stageOutput(ctx, s.relay, domain.StageSightSearch, subjectID, anonNonce(subjectID), result)
	if err != nil {
		return nil, err
	}

	s.logger.Info("staged sight search", "subject", subjectID, "city", q.City, "places", len(result.Places))
	return &SightSearchOutput{Token: token, Places: result.Places}, nil
}

// SightSelectOutput carries the selected place and its token.
type SightSelectOutput struct {
	Token string       `json:"token"`
	Place domain.Place `json:"placeInfo"`
}

// Select resolves a SightSearch token and stages the chosen place as its own
// narrower record.
func (s *SightService) Select(ctx context.Context, subjectID, searchToken, placeID string) (*SightSelectOutput, error) {
	var results domain.SightSearchResult
	if err := resolveUpstream(ctx, s.relay, domain.StageSightSelect, []string{searchToken}, []any{&results}); err != nil {
		return nil, err
	}

	place, ok := results.Place(placeID)
	if !ok {
		return nil, fmt.Errorf("%w: place %q", domain.ErrUnknownItem, placeID)
	}

	selection := domain.SightSelection{PlaceInfo: place, SelectedAt: s.now()}
	token, err := stageOutput(ctx, s.relay, domain.StageSightSelect, subjectID, placeID, selection)
	if err != nil {
		return nil, err
	}

	return &SightSelectOutput{Token: token, Place: place}, nil
}
