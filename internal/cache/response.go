// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// responseKeyPrefix is the Valkey key prefix for cached API responses.
	responseKeyPrefix = "resp:"

	// DefaultResponseTTL is how long a cached response lives.
	DefaultResponseTTL = 10 * time.Minute
)

// Keys for the cached reads. Group prefixes end with ':' so a group can be
// invalidated without touching its siblings.
const (
	RemedyCategoriesGroup = "remedy-categories:"
	StoryCategoriesKey    = "story-categories"
	RegionsKey            = "remedy-regions"
)

// RemedyCategoriesKey returns the key for the remedy category list, with or
// without remedy counts.
func RemedyCategoriesKey(includeCount bool) string {
	if includeCount {
		return RemedyCategoriesGroup + "counted"
	}
	return RemedyCategoriesGroup + "plain"
}

// Responses caches JSON-encodable values in Valkey. Cache errors are logged
// and treated as misses; the database stays the source of truth. A nil
// *Responses is valid and never caches.
type Responses struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponses creates a response cache backed by client.
func NewResponses(client *redis.Client, ttl time.Duration) *Responses {
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	return &Responses{client: client, ttl: ttl}
}

// Get decodes the cached value for key into v and reports a hit.
func (rc *Responses) Get(ctx context.Context, key string, v any) bool {
	if rc == nil {
		return false
	}
	val, err := rc.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, v); err != nil {
		slog.Warn("response cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("response cache hit", "key", key)
	return true
}

// Set stores v under key with the configured TTL.
func (rc *Responses) Set(ctx context.Context, key string, v any) {
	if rc == nil {
		return
	}
	val, err := json.Marshal(v)
	if err != nil {
		slog.Warn("response cache encode error", "key", key, "error", err)
		return
	}
	if err := rc.client.Set(ctx, responseKeyPrefix+key, val, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a single key.
func (rc *Responses) Invalidate(ctx context.Context, key string) {
	if rc == nil {
		return
	}
	if err := rc.client.Del(ctx, responseKeyPrefix+key).Err(); err != nil {
		slog.Warn("response cache invalidate error", "key", key, "error", err)
	}
}

// InvalidatePrefix removes every key starting with prefix by scanning.
func (rc *Responses) InvalidatePrefix(ctx context.Context, prefix string) {
	if rc == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, responseKeyPrefix+prefix+"*", 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "prefix", prefix, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("response cache invalidated", "prefix", prefix, "deleted", deleted)
}
