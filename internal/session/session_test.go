package session

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
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

type cachedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func TestKeyHidesToken(t *testing.T) {
	c := NewCache(nil, "secret", 0)
	token := "eyJhbGciOiJIUzI1NiJ9.payload.sig"

	key := c.Key(token)
	if !strings.HasPrefix(key, keyPrefix) {
		t.Errorf("key %q lacks prefix", key)
	}
	if strings.Contains(key, token) {
		t.Error("raw token leaked into key")
	}
	if len(key) != len(keyPrefix)+64 {
		t.Errorf("key length: got %d", len(key))
	}
	if c.Key(token) != key {
		t.Error("key must be deterministic")
	}
	if NewCache(nil, "other", 0).Key(token) == key {
		t.Error("different secrets must produce different keys")
	}
	if c.ttl != DefaultTTL {
		t.Errorf("ttl default: got %v", c.ttl)
	}
}

func TestCacheSetGetDelete(t *testing.T) {
	client := testValkeyClient(t)
	c := NewCache(client, "secret", time.Minute)
	ctx := context.Background()

	var got cachedUser
	ok, err := c.Get(ctx, "tok", &got)
	if err != nil || ok {
		t.Fatalf("Get before Set: ok=%v err=%v", ok, err)
	}

	want := cachedUser{ID: "u1", Email: "siti@example.com"}
	if err := c.Set(ctx, "tok", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err = c.Get(ctx, "tok", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	ttl := client.TTL(ctx, c.Key("tok")).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl: got %v", ttl)
	}

	if err := c.Delete(ctx, "tok"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, _ = c.Get(ctx, "tok", &got)
	if ok {
		t.Error("expected miss after Delete")
	}
}
