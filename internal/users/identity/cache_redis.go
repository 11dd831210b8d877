// Copyright (c) 2026 Authgate. All rights reserved.

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pvbalyuk/authgate/internal/platform/constants"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
)

// RedisCache implements [Cache] on top of a shared Redis client.
//
// Entries carry the password hash so the login path can verify credentials
// from a cache hit without touching the primary database. Redis is inside
// the trust boundary; nothing here ever crosses the HTTP edge directly.
type RedisCache struct {
	client *redis.Client
}

// Compile-time interface check.
var _ Cache = (*RedisCache)(nil)

// NewRedisCache wires the cache to a live Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// cachedUser is the wire form of a cache entry. It exists because User hides
// the password hash from JSON, and the cache must round-trip it.
type cachedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Get retrieves the snapshot stored under key, or ErrCacheMiss.
func (cache *RedisCache) Get(ctx context.Context, key string) (*User, error) {
	payload, err := cache.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("identity cache: get failed: %w", err)
	}

	var entry cachedUser
	if err := json.Unmarshal(payload, &entry); err != nil {
		// A corrupt entry behaves like a miss; the resolver will repopulate.
		return nil, ErrCacheMiss
	}

	roles := make(sec.Roles, 0, len(entry.Roles))
	for _, role := range entry.Roles {
		roles = append(roles, sec.Role(role))
	}

	return &User{
		ID:           entry.ID,
		Email:        entry.Email,
		PasswordHash: entry.PasswordHash,
		Roles:        roles,
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
	}, nil
}

// Set stores a snapshot under key for ttlSeconds.
func (cache *RedisCache) Set(ctx context.Context, key string, user *User, ttlSeconds int64) error {
	entry := cachedUser{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Roles:        user.Roles.Strings(),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("identity cache: marshal failed: %w", err)
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if err := cache.client.Set(ctx, cacheKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("identity cache: set failed: %w", err)
	}

	return nil
}

// Del removes the given keys. Deleting a missing key is a no-op.
func (cache *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, cacheKey(key))
	}

	if err := cache.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("identity cache: del failed: %w", err)
	}

	return nil
}

func cacheKey(key string) string {
	return constants.RedisPrefixIdentity + key
}
