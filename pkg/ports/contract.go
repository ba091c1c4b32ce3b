package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKeyValueStoreContract verifies that a KeyValueStore implementation
// adheres to the interface contract. advance moves the store's clock forward
// (miniredis FastForward, the memory store's fake clock); pass nil to skip
// the expiry cases for stores whose time cannot be controlled in tests.
func RunKeyValueStoreContract(t *testing.T, store KeyValueStore, advance func(d time.Duration)) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405") + "-"

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "roundtrip"
		require.NoError(t, store.Set(ctx, key, `{"v":1}`, time.Minute))

		val, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, "key should be present before TTL elapses")
		assert.Equal(t, `{"v":1}`, val)
	})

	t.Run("Get Missing", func(t *testing.T) {
		val, ok, err := store.Get(ctx, prefix+"never-written")
		require.NoError(t, err, "a miss is not a transport error")
		assert.False(t, ok)
		assert.Empty(t, val)
	})

	t.Run("Exists", func(t *testing.T) {
		key := prefix + "exists"
		require.NoError(t, store.Set(ctx, key, "x", time.Minute))

		ok, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Exists(ctx, prefix+"absent")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Overwrite Is Last-Writer-Wins", func(t *testing.T) {
		key := prefix + "overwrite"
		require.NoError(t, store.Set(ctx, key, "first", time.Minute))
		require.NoError(t, store.Set(ctx, key, "second", time.Minute))

		val, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "second", val, "overwrite must fully replace, never merge")
	})

	if advance == nil {
		return
	}

	t.Run("TTL Expiry", func(t *testing.T) {
		key := prefix + "expiring"
		require.NoError(t, store.Set(ctx, key, "soon gone", 30*time.Second))

		advance(31 * time.Second)

		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "Get after TTL must report a miss")

		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Overwrite Restarts TTL", func(t *testing.T) {
		key := prefix + "restarted"
		require.NoError(t, store.Set(ctx, key, "v1", 30*time.Second))
		advance(20 * time.Second)
		require.NoError(t, store.Set(ctx, key, "v2", 30*time.Second))
		advance(20 * time.Second)

		val, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, "second write must carry a fresh TTL")
		assert.Equal(t, "v2", val)
	})

	t.Run("Expire Shortens Lifetime", func(t *testing.T) {
		key := prefix + "shortened"
		require.NoError(t, store.Set(ctx, key, "v", time.Hour))
		require.NoError(t, store.Expire(ctx, key, 10*time.Second))

		advance(11 * time.Second)

		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
