package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, responseKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type region struct {
	Region string `json:"region"`
	Count  int    `json:"remedy_count"`
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(context.Background(), host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestResponsesSetAndGet(t *testing.T) {
	rc := NewResponses(testValkeyClient(t), time.Minute)
	ctx := context.Background()

	var got []region
	if rc.Get(ctx, RegionsKey, &got) {
		t.Error("expected cache miss")
	}

	want := []region{{"Jawa Tengah", 4}, {"Bali", 1}}
	rc.Set(ctx, RegionsKey, want)

	if !rc.Get(ctx, RegionsKey, &got) {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestResponsesInvalidate(t *testing.T) {
	rc := NewResponses(testValkeyClient(t), time.Minute)
	ctx := context.Background()

	rc.Set(ctx, StoryCategoriesKey, []string{"Legenda"})
	rc.Invalidate(ctx, StoryCategoriesKey)

	var got []string
	if rc.Get(ctx, StoryCategoriesKey, &got) {
		t.Error("expected miss after invalidation")
	}
}

func TestResponsesInvalidatePrefix(t *testing.T) {
	rc := NewResponses(testValkeyClient(t), time.Minute)
	ctx := context.Background()

	rc.Set(ctx, RemedyCategoriesKey(true), []string{"a"})
	rc.Set(ctx, RemedyCategoriesKey(false), []string{"b"})
	rc.Set(ctx, RegionsKey, []string{"c"})

	rc.InvalidatePrefix(ctx, RemedyCategoriesGroup)

	var got []string
	for _, key := range []string{RemedyCategoriesKey(true), RemedyCategoriesKey(false)} {
		if rc.Get(ctx, key, &got) {
			t.Errorf("expected miss for %q", key)
		}
	}
	if !rc.Get(ctx, RegionsKey, &got) {
		t.Error("sibling key must survive a prefix invalidation")
	}
}

func TestNilResponsesIsNoop(t *testing.T) {
	var rc *Responses
	ctx := context.Background()

	rc.Set(ctx, RegionsKey, 1)
	rc.Invalidate(ctx, RegionsKey)
	rc.InvalidatePrefix(ctx, RemedyCategoriesGroup)

	var v int
	if rc.Get(ctx, RegionsKey, &v) {
		t.Error("nil cache must always miss")
	}
}

func TestRemedyCategoriesKey(t *testing.T) {
	if RemedyCategoriesKey(true) == RemedyCategoriesKey(false) {
		t.Error("counted and plain lists need distinct keys")
	}
	if RemedyCategoriesKey(true)[:len(RemedyCategoriesGroup)] != RemedyCategoriesGroup {
		t.Error("key must start with its group prefix")
	}
}

func TestNewResponsesDefaultTTL(t *testing.T) {
	rc := NewResponses(nil, 0)
	if rc.ttl != DefaultResponseTTL {
		t.Errorf("expected DefaultResponseTTL (%v), got %v", DefaultResponseTTL, rc.ttl)
	}
}
