package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/farehop/farehop/internal/logging"
	"github.com/farehop/farehop/pkg/domain"
	"github.com/farehop/farehop/pkg/ports"
)

// Observer receives relay outcomes for metrics. Implementations must be safe
// for concurrent use.
type Observer interface {
	RecordStage(stage string, err error)
	RecordResolve(stage string, err error)
}

type nopObserver struct{}

func (nopObserver) RecordStage(string, error)   {}
func (nopObserver) RecordResolve(string, error) {}

// Store orchestrates the relay: serialize, write with TTL, mint token on the
// way out; decode token, read, deserialize on the way back in.
type Store struct {
	kv       ports.KeyValueStore
	codec    *Codec
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for relay events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithObserver wires relay metrics.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock overrides the wall clock used for key buckets. Tests use this to
// pin day buckets and nanosecond buckets.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a relay Store over the given key-value store and codec.
func NewStore(kv ports.KeyValueStore, codec *Codec, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		codec:    codec,
		logger:   logging.NewNop(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage serializes payload, writes it under the stage's deterministic key
// with the stage's TTL, and returns the continuation token for the key.
// Re-staging the same (stage, subject, bucket, disambiguator) overwrites the
// prior record and restarts its TTL: last writer wins, no merging.
func (s *Store) Stage(ctx context.Context, stage domain.Stage, subjectID, disambiguator string, payload any) (string, error) {
	spec, err := stage.Spec()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.observer.RecordStage(stage.String(), err)
		return "", fmt.Errorf("failed to serialize %s payload: %w", stage, err)
	}

	key, err := BuildKey(stage, subjectID, s.now(), disambiguator)
	if err != nil {
		s.observer.RecordStage(stage.String(), err)
		return "", err
	}

	// Value and TTL go down as one atomic store call; a record can never
	// be left behind without its expiry.
	if err := s.kv.Set(ctx, key, string(data), spec.TTL); err != nil {
		s.observer.RecordStage(stage.String(), err)
		return "", fmt.Errorf("failed to stage %s record: %w", stage, err)
	}

	token, err := s.codec.Encode(stage, key)
	if err != nil {
		s.observer.RecordStage(stage.String(), err)
		return "", fmt.Errorf("failed to encode %s token: %w", stage, err)
	}

	s.logger.Debug("staged record", "stage", stage, "key", key, "ttl", spec.TTL)
	s.observer.RecordStage(stage.String(), nil)
	return token, nil
}

// Resolve decodes token and reads the staged record back into out.
//
//   - undecodable token            -> domain.ErrInvalidReference
//   - key absent (TTL elapsed)     -> domain.ErrExpired
//   - record present but bad JSON  -> domain.ErrCorruptRecord
//
// Resolve never consumes the record; resolving a live token twice returns
// the same payload both times.
func (s *Store) Resolve(ctx context.Context, stage domain.Stage, token string, out any) error {
	err := s.resolve(ctx, stage, token, out)
	s.observer.RecordResolve(stage.String(), err)
	return err
}

func (s *Store) resolve(ctx context.Context, stage domain.Stage, token string, out any) error {
	key, err := s.codec.Decode(stage, token)
	if err != nil {
		return err
	}

	val, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s record: %w", stage, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s record for key %q is gone", domain.ErrExpired, stage, key)
	}

	if err := json.Unmarshal([]byte(val), out); err != nil {
		// A live record that does not deserialize is a defect, not a
		// timing condition. Log it loudly and keep it distinct from
		// expiry so callers do not tell users to simply retry.
		s.logger.Error("staged record does not deserialize", "stage", stage, "key", key, "error", err)
		return fmt.Errorf("%w: %s record under key %q: %v", domain.ErrCorruptRecord, stage, key, err)
	}
	return nil
}
