// Copyright (c) 2026 Authgate. All rights reserved.

package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pvbalyuk/authgate/internal/platform/ctxutil"
)

/*
Resolver is the cache-aside read path for user identities.

Resolution order:

 1. Cache lookup under the caller's key (id or email, verbatim after
    normalization). A hit short-circuits the durable store entirely.
 2. Durable-store lookup by id OR email in a single query.
 3. On success, the snapshot is written back under the same key with the
    access-token lifetime as TTL, so a cached identity can never outlive
    the tokens minted from it.

Negative results are never cached: a failed lookup must not mask a user
registered moments later. Cache connectivity failures degrade to a store
read instead of failing the request.
*/
type Resolver struct {
	users      UserRepository
	cache      Cache
	ttlSeconds int64
}

// NewResolver builds a Resolver. ttlSeconds is the snapshot lifetime and
// should equal the configured access-token lifetime.
func NewResolver(users UserRepository, cache Cache, ttlSeconds int64) *Resolver {
	return &Resolver{
		users:      users,
		cache:      cache,
		ttlSeconds: ttlSeconds,
	}
}

/*
Resolve returns the user identified by key (UUID or email).

Parameters:
  - ctx: context.Context
  - key: string

Returns:
  - *User: Hydrated entity with roles
  - error: apperr.NotFound when no account matches, storage failures otherwise
*/
func (resolver *Resolver) Resolve(ctx context.Context, key string) (*User, error) {
	key = NormalizeEmail(key) // UUIDs are already lowercase; emails must be.
	logger := ctxutil.GetLogger(ctx)

	// ── Step 1: Cache lookup ──
	cached, err := resolver.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// The store stays authoritative when the cache is unreachable.
		logger.Warn("identity_cache_read_failed", slog.Any("error", err))
	}

	// ── Step 2: Authoritative store lookup ──
	user, err := resolver.users.FindByIDOrEmail(ctx, key)
	if err != nil {
		return nil, err
	}

	// ── Step 3: Populate cache (best effort) ──
	if err := resolver.cache.Set(ctx, key, user, resolver.ttlSeconds); err != nil {
		logger.Warn("identity_cache_write_failed", slog.Any("error", err))
	}

	return user, nil
}

/*
Invalidate drops the cached snapshots for a user after any mutation.

Both lookup dimensions (id and email) are removed, since either may hold a
stale snapshot. Callers that change an email should pass the pre-change
entity so the old email key is the one evicted.
*/
func (resolver *Resolver) Invalidate(ctx context.Context, user *User) error {
	return resolver.cache.Del(ctx, user.ID, user.Email)
}
