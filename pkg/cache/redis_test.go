package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func skipIfNoRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}

	cache, err := NewRedisCache(&Options{
		Backend:       BackendRedis,
		RedisAddr:     addr,
		RedisPassword: os.Getenv("REDIS_TEST_PASSWORD"),
		DefaultTTL:    time.Minute,
	})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	cache := skipIfNoRedis(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "netsimplex-test:key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	val, err := cache.Get(ctx, "netsimplex-test:key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(val) != "value" {
		t.Errorf("Get() = %s, want value", val)
	}

	if err := cache.Delete(ctx, "netsimplex-test:key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if exists, _ := cache.Exists(ctx, "netsimplex-test:key"); exists {
		t.Error("key should be gone")
	}
}

func TestRedisCache_NotFound(t *testing.T) {
	cache := skipIfNoRedis(t)

	if _, err := cache.Get(context.Background(), "netsimplex-test:missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestRedisCache_DeleteByPattern(t *testing.T) {
	cache := skipIfNoRedis(t)
	ctx := context.Background()

	cache.Set(ctx, "netsimplex-test:solve:a", []byte("1"), time.Minute)
	cache.Set(ctx, "netsimplex-test:solve:b", []byte("2"), time.Minute)

	n, err := cache.DeleteByPattern(ctx, "netsimplex-test:solve:*")
	if err != nil {
		t.Fatalf("DeleteByPattern() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d keys, want 2", n)
	}
}

func TestRedisCache_Stats(t *testing.T) {
	cache := skipIfNoRedis(t)

	stats, err := cache.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Backend != BackendRedis {
		t.Errorf("Backend = %s", stats.Backend)
	}
}
