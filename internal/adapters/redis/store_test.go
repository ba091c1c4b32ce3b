package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	redisadapter "github.com/farehop/farehop/internal/adapters/redis"
	"github.com/farehop/farehop/pkg/ports"
)

func newTestStore(t *testing.T) (*redisadapter.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return redisadapter.NewFromClient(client), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, mr := newTestStore(t)
	ports.RunKeyValueStoreContract(t, store, mr.FastForward)
}

func TestRedisStore_PrefixIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	a := redisadapter.NewFromClient(client, redisadapter.WithPrefix("a:"))
	b := redisadapter.NewFromClient(client, redisadapter.WithPrefix("b:"))

	ctx := context.Background()
	if err := a.Set(ctx, "k", "va", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Error("store b must not see keys written through store a")
	}
	if val, ok, _ := a.Get(ctx, "k"); !ok || val != "va" {
		t.Errorf("store a should read its own key back, got %q ok=%v", val, ok)
	}
}
