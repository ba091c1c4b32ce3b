package ports

import (
	"context"
	"time"
)

// KeyValueStore is the ephemeral staging store. Implementations must be safe
// for concurrent use; the relay performs no locking of its own and relies on
// key-namespace partitioning plus last-writer-wins semantics.
type KeyValueStore interface {
	// Get returns the value for key. A missing or expired key reports
	// ok=false with a nil error; err is reserved for transport failures.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes value under key with the given TTL as one atomic
	// operation, so a record can never outlive its TTL because a separate
	// expire call was lost. A ttl of zero stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Expire resets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Exists reports whether key currently holds a live value.
	Exists(ctx context.Context, key string) (bool, error)
}
