// Copyright (c) 2026 Authgate. All rights reserved.

package account

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
	"github.com/pvbalyuk/authgate/internal/users/identity"
)

// # Test Doubles

// memRepo is an in-memory identity.UserRepository with working role storage.
type memRepo struct {
	users map[string]*identity.User // keyed by id
}

func newMemRepo(seed ...*identity.User) *memRepo {
	repo := &memRepo{users: make(map[string]*identity.User)}
	for _, user := range seed {
		copied := *user
		repo.users[user.ID] = &copied
	}
	return repo
}

func (m *memRepo) FindByIDOrEmail(_ context.Context, key string) (*identity.User, error) {
	for _, user := range m.users {
		if user.ID == key || user.Email == key {
			copied := *user
			copied.Roles = append(sec.Roles{}, user.Roles...)
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *memRepo) Create(_ context.Context, user *identity.User) error {
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memRepo) Update(_ context.Context, user *identity.User) error {
	stored, ok := m.users[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.Email = user.Email
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) List(_ context.Context, limit, _ int) ([]identity.User, int, error) {
	out := make([]identity.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
		if len(out) == limit {
			break
		}
	}
	return out, len(m.users), nil
}

func (m *memRepo) ListRoles(_ context.Context, userID string) (sec.Roles, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return append(sec.Roles{}, user.Roles...), nil
}

func (m *memRepo) InsertRole(_ context.Context, userID string, role sec.Role) error {
	user, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	if user.Roles.Has(role) {
		return apperr.Conflict("Role already exists")
	}
	user.Roles = append(user.Roles, role)
	return nil
}

func (m *memRepo) DeleteRole(_ context.Context, userID string, role sec.Role) error {
	user, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	remaining := make(sec.Roles, 0, len(user.Roles))
	for _, held := range user.Roles {
		if held != role {
			remaining = append(remaining, held)
		}
	}
	user.Roles = remaining
	return nil
}

// recordingCache records deleted keys so tests can assert invalidation.
type recordingCache struct {
	deleted []string
}

func (r *recordingCache) Get(context.Context, string) (*identity.User, error) {
	return nil, identity.ErrCacheMiss
}
func (r *recordingCache) Set(context.Context, string, *identity.User, int64) error { return nil }
func (r *recordingCache) Del(_ context.Context, keys ...string) error {
	r.deleted = append(r.deleted, keys...)
	return nil
}

// # Fixtures

func seededService(users ...*identity.User) (*Service, *memRepo, *recordingCache) {
	repo := newMemRepo(users...)
	cache := &recordingCache{}
	resolver := identity.NewResolver(repo, cache, 900)
	return NewService(repo, resolver), repo, cache
}

func regularUser() *identity.User {
	return &identity.User{
		ID:    "0192e4a1-7c1d-7e2b-b1a4-9d2f6c3e8a01",
		Email: "reader@example.com",
		Roles: sec.Roles{sec.RoleUser},
	}
}

// # Role Management

func TestService_GrantRole(t *testing.T) {
	user := regularUser()
	service, repo, cache := seededService(user)

	granted, err := service.GrantRole(context.Background(), user.ID, sec.RoleAdmin)

	require.NoError(t, err)
	assert.True(t, granted.Roles.Has(sec.RoleAdmin))
	assert.True(t, repo.users[user.ID].Roles.Has(sec.RoleAdmin))
	assert.Contains(t, cache.deleted, user.ID)
	assert.Contains(t, cache.deleted, user.Email)
}

func TestService_GrantRole_AlreadyHeldConflicts(t *testing.T) {
	user := regularUser()
	service, _, _ := seededService(user)

	_, err := service.GrantRole(context.Background(), user.ID, sec.RoleUser)

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusConflict, appError.HTTPStatus)
}

func TestService_RevokeRole(t *testing.T) {
	user := regularUser()
	user.Roles = sec.Roles{sec.RoleUser, sec.RoleAdmin}
	service, repo, _ := seededService(user)

	revoked, err := service.RevokeRole(context.Background(), user.ID, sec.RoleAdmin)

	require.NoError(t, err)
	assert.False(t, revoked.Roles.Has(sec.RoleAdmin))
	assert.True(t, revoked.Roles.Has(sec.RoleUser))
	assert.False(t, repo.users[user.ID].Roles.Has(sec.RoleAdmin))
}

func TestService_RevokeRole_NotHeldConflicts(t *testing.T) {
	user := regularUser()
	service, _, _ := seededService(user)

	_, err := service.RevokeRole(context.Background(), user.ID, sec.RoleAdmin)

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperr.As(err).HTTPStatus)
}

func TestService_GrantRole_UnknownUser(t *testing.T) {
	service, _, _ := seededService()

	_, err := service.GrantRole(context.Background(), "missing-id", sec.RoleAdmin)

	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

// # Profile Management

func TestService_Update_ChangesEmailAndEvictsOldKeys(t *testing.T) {
	user := regularUser()
	service, repo, cache := seededService(user)

	newEmail := "New.Address@Example.com"
	updated, err := service.Update(context.Background(), user.ID, UpdateInput{Email: &newEmail})

	require.NoError(t, err)
	assert.Equal(t, "new.address@example.com", updated.Email)
	assert.Equal(t, "new.address@example.com", repo.users[user.ID].Email)

	// The PRE-change keys must be evicted; the new email had no entry.
	assert.Contains(t, cache.deleted, user.ID)
	assert.Contains(t, cache.deleted, "reader@example.com")
}

func TestService_Update_NoFieldsIsNoOp(t *testing.T) {
	user := regularUser()
	service, repo, _ := seededService(user)

	updated, err := service.Update(context.Background(), user.ID, UpdateInput{})

	require.NoError(t, err)
	assert.Equal(t, user.Email, updated.Email)
	assert.Equal(t, user.Email, repo.users[user.ID].Email)
}

func TestService_Delete(t *testing.T) {
	user := regularUser()
	service, repo, cache := seededService(user)

	require.NoError(t, service.Delete(context.Background(), user.ID))
	assert.Empty(t, repo.users)
	assert.Contains(t, cache.deleted, user.ID)
	assert.Contains(t, cache.deleted, user.Email)
}

func TestService_Delete_UnknownUser(t *testing.T) {
	service, _, _ := seededService()

	err := service.Delete(context.Background(), "missing-id")

	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

// # Directory

func TestService_Get_ByEmail(t *testing.T) {
	user := regularUser()
	service, _, _ := seededService(user)

	found, err := service.Get(context.Background(), "Reader@Example.com")

	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestService_List(t *testing.T) {
	service, _, _ := seededService(regularUser())

	users, total, err := service.List(context.Background(), 20, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, users, 1)
}
