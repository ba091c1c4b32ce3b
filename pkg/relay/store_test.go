package relay_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farehop/farehop/internal/adapters/memory"
	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/relay"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRelay(t *testing.T) (*relay.Store, *memory.Store, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	kv := memory.NewStore(memory.WithClock(clock.Now))
	codec, err := relay.NewCodec([]byte(testSecret))
	require.NoError(t, err)

	return relay.NewStore(kv, codec, relay.WithClock(clock.Now)), kv, clock
}

func TestRelay_RoundTrip(t *testing.T) {
	rs, _, _ := newRelay(t)
	ctx := context.Background()

	in := domain.FlightSearchResult{
		Query: domain.FlightQuery{Origin: "GRU", Destination: "LIS", DepartDate: "2024-02-01", Passengers: 2},
		Flights: []domain.FlightOffer{
			{ID: "F1", Carrier: "TP", FlightNumber: "TP88", Origin: "GRU", Destination: "LIS",
				Price: domain.Money{Amount: 145000, Currency: "EUR"}},
			{ID: "F2", Carrier: "LA", FlightNumber: "LA700", Origin: "GRU", Destination: "LIS",
				Price: domain.Money{Amount: 132050, Currency: "EUR"}},
		},
	}

	token, err := rs.Stage(ctx, domain.StageSearch, "u1", "", in)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var out domain.FlightSearchResult
	require.NoError(t, rs.Resolve(ctx, domain.StageSearch, token, &out))
	assert.Equal(t, in, out)
}

func TestRelay_ResolveIsIdempotent(t *testing.T) {
	rs, _, _ := newRelay(t)
	ctx := context.Background()

	token, err := rs.Stage(ctx, domain.StageSightSearch, "u1", "", domain.SightSearchResult{
		Query:  domain.SightQuery{City: "Lisbon"},
		Places: []domain.Place{{ID: "P1", Name: "Belém Tower"}},
	})
	require.NoError(t, err)

	var first, second domain.SightSearchResult
	require.NoError(t, rs.Resolve(ctx, domain.StageSightSearch, token, &first))
	require.NoError(t, rs.Resolve(ctx, domain.StageSightSearch, token, &second))
	assert.Equal(t, first, second, "records are never consumed on read")
}

func TestRelay_Expiry(t *testing.T) {
	rs, _, clock := newRelay(t)
	ctx := context.Background()

	token, err := rs.Stage(ctx, domain.StageSearch, "u1", "", domain.FlightSearchResult{})
	require.NoError(t, err)

	// Search TTL is 600s.
	clock.Advance(601 * time.Second)

	var out domain.FlightSearchResult
	err = rs.Resolve(ctx, domain.StageSearch, token, &out)
	assert.ErrorIs(t, err, domain.ErrExpired)
	assert.Equal(t, domain.CodeExpired, domain.ErrorCode(err))
}

func TestRelay_IdempotentOverwrite(t *testing.T) {
	rs, _, _ := newRelay(t)
	ctx := context.Background()

	p1 := domain.FlightSearchResult{Flights: []domain.FlightOffer{{ID: "OLD"}}}
	p2 := domain.FlightSearchResult{Flights: []domain.FlightOffer{{ID: "NEW"}}}

	t1, err := rs.Stage(ctx, domain.StageSearch, "u1", "", p1)
	require.NoError(t, err)
	t2, err := rs.Stage(ctx, domain.StageSearch, "u1", "", p2)
	require.NoError(t, err)

	// Same day bucket: both tokens reference the same record, and the
	// second write fully replaced the first.
	for _, token := range []string{t1, t2} {
		var out domain.FlightSearchResult
		require.NoError(t, rs.Resolve(ctx, domain.StageSearch, token, &out))
		require.Len(t, out.Flights, 1)
		assert.Equal(t, "NEW", out.Flights[0].ID)
	}
}

func TestRelay_OverwriteRestartsTTL(t *testing.T) {
	rs, _, clock := newRelay(t)
	ctx := context.Background()

	_, err := rs.Stage(ctx, domain.StageSearch, "u1", "", domain.FlightSearchResult{})
	require.NoError(t, err)

	clock.Advance(500 * time.Second)

	token, err := rs.Stage(ctx, domain.StageSearch, "u1", "", domain.FlightSearchResult{})
	require.NoError(t, err)

	// 500s after the rewrite the original TTL would have elapsed, the
	// restarted one has not.
	clock.Advance(500 * time.Second)

	var out domain.FlightSearchResult
	assert.NoError(t, rs.Resolve(ctx, domain.StageSearch, token, &out))
}

func TestRelay_NamespaceIsolation(t *testing.T) {
	rs, _, _ := newRelay(t)
	ctx := context.Background()

	ta, err := rs.Stage(ctx, domain.StageSearch, "alice", "", domain.FlightSearchResult{
		Flights: []domain.FlightOffer{{ID: "ALICE"}},
	})
	require.NoError(t, err)
	tb, err := rs.Stage(ctx, domain.StageSearch, "bob", "", domain.FlightSearchResult{
		Flights: []domain.FlightOffer{{ID: "BOB"}},
	})
	require.NoError(t, err)

	require.NotEqual(t, ta, tb)

	var out domain.FlightSearchResult
	require.NoError(t, rs.Resolve(ctx, domain.StageSearch, ta, &out))
	assert.Equal(t, "ALICE", out.Flights[0].ID, "subject A's token must never surface subject B's payload")
}

func TestRelay_IsolationSurvivesSanitization(t *testing.T) {
	rs, _, _ := newRelay(t)
	ctx := context.Background()

	// "u-1" and "u_1" are distinct subjects whose escaped key segments must
	// stay distinct; otherwise one subject's token reads the other's record.
	ta, err := rs.Stage(ctx, domain.StageSearch, "u-1", "", domain.FlightSearchResult{
		Flights: []domain.FlightOffer{{ID: "DASH"}},
	})
	require.NoError(t, err)
	_, err = rs.Stage(ctx, domain.StageSearch, "u_1", "", domain.FlightSearchResult{
		Flights: []domain.FlightOffer{{ID: "UNDERSCORE"}},
	})
	require.NoError(t, err)

	var out domain.FlightSearchResult
	require.NoError(t, rs.Resolve(ctx, domain.StageSearch, ta, &out))
	assert.Equal(t, "DASH", out.Flights[0].ID)
}

func TestRelay_TamperedToken(t *testing.T) {
	rs, _, _ := newRelay(t)
	ctx := context.Background()

	token, err := rs.Stage(ctx, domain.StageSearch, "u1", "", domain.FlightSearchResult{})
	require.NoError(t, err)

	mid := len(token) / 2
	flipped := byte('A')
	if token[mid] == 'A' {
		flipped = 'B'
	}
	tampered := token[:mid] + string(flipped) + token[mid+1:]

	var out domain.FlightSearchResult
	err = rs.Resolve(ctx, domain.StageSearch, tampered, &out)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestRelay_CorruptRecord(t *testing.T) {
	rs, kv, _ := newRelay(t)
	ctx := context.Background()

	token, err := rs.Stage(ctx, domain.StageSearch, "u1", "", domain.FlightSearchResult{})
	require.NoError(t, err)

	// Corrupt the record behind the relay's back.
	key, err := relay.BuildKey(domain.StageSearch, "u1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, key, "}{ not json", time.Minute))

	var out domain.FlightSearchResult
	err = rs.Resolve(ctx, domain.StageSearch, token, &out)
	assert.ErrorIs(t, err, domain.ErrCorruptRecord)
	assert.NotErrorIs(t, err, domain.ErrExpired, "corruption is a defect, not a timing condition")
}

func TestRelay_WrongStageToken(t *testing.T) {
	rs, _, _ := newRelay(t)
	ctx := context.Background()

	token, err := rs.Stage(ctx, domain.StageSearch, "u1", "", domain.FlightSearchResult{})
	require.NoError(t, err)

	var out domain.FlightSelection
	err = rs.Resolve(ctx, domain.StageSelect, token, &out)
	assert.ErrorIs(t, err, domain.ErrInvalidReference, "a token is consumable only by its designated stage")
}
