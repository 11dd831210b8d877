// Copyright (c) 2026 Authgate. All rights reserved.

package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
)

// # Test Doubles

// fakeUserRepo is a canned-response UserRepository that counts lookups.
type fakeUserRepo struct {
	user  *User
	err   error
	calls int
}

func (f *fakeUserRepo) FindByIDOrEmail(_ context.Context, _ string) (*User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.user
	return &copied, nil
}

func (f *fakeUserRepo) Create(context.Context, *User) error { return nil }
func (f *fakeUserRepo) Update(context.Context, *User) error { return nil }

func (f *fakeUserRepo) Delete(context.Context, string) error { return nil }

func (f *fakeUserRepo) List(context.Context, int, int) ([]User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) ListRoles(context.Context, string) (sec.Roles, error) {
	return nil, nil
}

func (f *fakeUserRepo) InsertRole(context.Context, string, sec.Role) error { return nil }
func (f *fakeUserRepo) DeleteRole(context.Context, string, sec.Role) error { return nil }

// fakeCache is an in-memory Cache without expiry.
type fakeCache struct {
	entries map[string]*User
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*User)}
}

func (f *fakeCache) Get(_ context.Context, key string) (*User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	copied := *user
	return &copied, nil
}

func (f *fakeCache) Set(_ context.Context, key string, user *User, _ int64) error {
	copied := *user
	f.entries[key] = &copied
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func testUser() *User {
	return &User{
		ID:           "0192e4a1-7c1d-7e2b-b1a4-9d2f6c3e8a01",
		Email:        "reader@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Roles:        sec.Roles{sec.RoleUser},
		CreatedAt:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

// # Tests

func TestResolver_Resolve_CacheHitSkipsStore(t *testing.T) {
	user := testUser()
	cache := newFakeCache()
	require.NoError(t, cache.Set(context.Background(), user.Email, user, 900))

	repo := &fakeUserRepo{err: errors.New("store must not be reached on a cache hit")}
	resolver := NewResolver(repo, cache, 900)

	resolved, err := resolver.Resolve(context.Background(), user.Email)

	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, user.PasswordHash, resolved.PasswordHash, "cache hits must carry the hash for login")
	assert.Zero(t, repo.calls)
}

func TestResolver_Resolve_MissPopulatesCache(t *testing.T) {
	user := testUser()
	cache := newFakeCache()
	repo := &fakeUserRepo{user: user}
	resolver := NewResolver(repo, cache, 900)

	resolved, err := resolver.Resolve(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Equal(t, user.Email, resolved.Email)
	assert.Equal(t, 1, repo.calls)

	// Second resolve must be served from cache.
	_, err = resolver.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second lookup must not hit the store")
}

func TestResolver_Resolve_NotFoundIsNotCached(t *testing.T) {
	cache := newFakeCache()
	repo := &fakeUserRepo{err: apperr.NotFound("User")}
	resolver := NewResolver(repo, cache, 900)

	_, err := resolver.Resolve(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	// A retry goes back to the store; the miss was not memoized.
	_, err = resolver.Resolve(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, 2, repo.calls)
	assert.Empty(t, cache.entries)
}

func TestResolver_Resolve_CacheOutageFallsThrough(t *testing.T) {
	user := testUser()
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	repo := &fakeUserRepo{user: user}
	resolver := NewResolver(repo, cache, 900)

	resolved, err := resolver.Resolve(context.Background(), user.Email)

	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, 1, repo.calls)
}

func TestResolver_Resolve_NormalizesEmailKey(t *testing.T) {
	user := testUser()
	cache := newFakeCache()
	repo := &fakeUserRepo{user: user}
	resolver := NewResolver(repo, cache, 900)

	_, err := resolver.Resolve(context.Background(), "  Reader@Example.COM ")
	require.NoError(t, err)

	// The snapshot must be stored under the canonical key.
	_, ok := cache.entries[user.Email]
	assert.True(t, ok)
}

func TestResolver_Invalidate_DropsBothKeys(t *testing.T) {
	user := testUser()
	cache := newFakeCache()
	require.NoError(t, cache.Set(context.Background(), user.ID, user, 900))
	require.NoError(t, cache.Set(context.Background(), user.Email, user, 900))

	resolver := NewResolver(&fakeUserRepo{user: user}, cache, 900)

	require.NoError(t, resolver.Invalidate(context.Background(), user))
	assert.Empty(t, cache.entries)
}
