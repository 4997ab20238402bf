// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides a Valkey-backed cache of resolved identities.
// Entries are keyed by a keyed BLAKE2b digest of the bearer token, so raw
// tokens never reach Valkey, and expire with a short TTL.
package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultTTL bounds how long a revoked token can keep resolving.
	DefaultTTL = 5 * time.Minute

	// keyPrefix namespaces identity keys in Valkey to avoid collisions.
	keyPrefix = "identity:"
)

// Cache stores JSON values per token in Valkey.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	key    [32]byte
}

// NewCache creates a cache backed by client. secret keys the token digest;
// every instance sharing the cache must use the same secret.
func NewCache(client *redis.Client, secret string, ttl time.Duration) *Cache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		key:    blake2b.Sum256([]byte(secret)),
	}
}

// Key returns the Valkey key for token.
func (c *Cache) Key(token string) string {
	h, _ := blake2b.New256(c.key[:]) // only fails for keys over 64 bytes
	h.Write([]byte(token))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get decodes the cached value for token into v and reports whether one
// was found.
func (c *Cache) Get(ctx context.Context, token string, v any) (bool, error) {
	payload, err := c.client.Get(ctx, c.Key(token)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session get: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("session unmarshal: %w", err)
	}
	return true, nil
}

// Set stores v for token with the configured TTL.
func (c *Cache) Set(ctx context.Context, token string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(token), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Delete forgets token.
func (c *Cache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, c.Key(token)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
