package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farehop/farehop/internal/adapters/memory"
	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/relay"
	"github.com/farehop/farehop/pkg/workflow"
)

func newSightFixture(t *testing.T) (*workflow.SightService, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	kv := memory.NewStore(memory.WithClock(clock.Now))
	codec, err := relay.NewCodec([]byte("workflow-test-secret-123"))
	require.NoError(t, err)
	rs := relay.NewStore(kv, codec, relay.WithClock(clock.Now))

	provider := &fakePlaceProvider{
		result: &domain.SightSearchResult{
			Places: []domain.Place{
				{ID: "P1", Name: "Belém Tower", Address: "Av. Brasília, Lisbon", Rating: 4.7},
				{ID: "P2", Name: "Jerónimos Monastery", Address: "Praça do Império, Lisbon", Rating: 4.8},
			},
		},
	}

	return workflow.NewSightService(rs, provider, workflow.WithSightClock(clock.Now)), clock
}

func TestSightSearchThenSelect(t *testing.T) {
	svc, _ := newSightFixture(t)
	ctx := context.Background()

	search, err := svc.Search(ctx, "u1", domain.SightQuery{City: "Lisbon", Category: "landmark"})
	require.NoError(t, err)
	require.Len(t, search.Places, 2)

	sel, err := svc.Select(ctx, "u1", search.Token, "P2")
	require.NoError(t, err)
	assert.Equal(t, "Jerónimos Monastery", sel.Place.Name)
}

func TestSightSelect_Expired(t *testing.T) {
	svc, clock := newSightFixture(t)
	ctx := context.Background()

	search, err := svc.Search(ctx, "u1", domain.SightQuery{City: "Lisbon"})
	require.NoError(t, err)

	clock.Advance(16 * time.Minute) // past the 900s sight-search TTL

	_, err = svc.Select(ctx, "u1", search.Token, "P1")
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestSightSelect_UnknownPlace(t *testing.T) {
	svc, _ := newSightFixture(t)
	ctx := context.Background()

	search, err := svc.Search(ctx, "u1", domain.SightQuery{City: "Lisbon"})
	require.NoError(t, err)

	_, err = svc.Select(ctx, "u1", search.Token, "P999")
	assert.ErrorIs(t, err, domain.ErrUnknownItem)
}
