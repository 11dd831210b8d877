// Copyright (c) 2026 Authgate. All rights reserved.

package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
	"github.com/pvbalyuk/authgate/internal/users/identity"
)

// # Test Doubles

// memUserRepo is an in-memory identity.UserRepository keyed by id and email.
type memUserRepo struct {
	byID    map[string]*identity.User
	byEmail map[string]*identity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[string]*identity.User),
		byEmail: make(map[string]*identity.User),
	}
}

func (m *memUserRepo) FindByIDOrEmail(_ context.Context, key string) (*identity.User, error) {
	if user, ok := m.byID[key]; ok {
		copied := *user
		return &copied, nil
	}
	if user, ok := m.byEmail[key]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (m *memUserRepo) Create(_ context.Context, user *identity.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return apperr.Conflict("User already exists")
	}
	copied := *user
	m.byID[user.ID] = &copied
	m.byEmail[user.Email] = &copied
	return nil
}

func (m *memUserRepo) Update(context.Context, *identity.User) error { return nil }

func (m *memUserRepo) Delete(context.Context, string) error { return nil }

func (m *memUserRepo) List(context.Context, int, int) ([]identity.User, int, error) {
	return nil, 0, nil
}

func (m *memUserRepo) ListRoles(context.Context, string) (sec.Roles, error) {
	return nil, nil
}

func (m *memUserRepo) InsertRole(context.Context, string, sec.Role) error { return nil }
func (m *memUserRepo) DeleteRole(context.Context, string, sec.Role) error { return nil }

// nopCache never hits so every resolve goes to the repo.
type nopCache struct{}

func (nopCache) Get(context.Context, string) (*identity.User, error) {
	return nil, identity.ErrCacheMiss
}
func (nopCache) Set(context.Context, string, *identity.User, int64) error { return nil }
func (nopCache) Del(context.Context, ...string) error { return nil }

// memTokenRepo mirrors the store's semantics: one live token per device,
// single-use consumption.
type memTokenRepo struct {
	byValue  map[string]*RefreshToken
	byDevice map[string]string // (userID, userAgent) -> token value
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{
		byValue:  make(map[string]*RefreshToken),
		byDevice: make(map[string]string),
	}
}

func deviceKey(userID, userAgent string) string { return userID + "\x00" + userAgent }

func (m *memTokenRepo) Upsert(_ context.Context, token *RefreshToken) error {
	key := deviceKey(token.UserID, token.UserAgent)
	if previous, ok := m.byDevice[key]; ok {
		delete(m.byValue, previous)
	}
	copied := *token
	m.byValue[token.Token] = &copied
	m.byDevice[key] = token.Token
	return nil
}

func (m *memTokenRepo) Consume(_ context.Context, value string) (*RefreshToken, error) {
	token, ok := m.byValue[value]
	if !ok {
		return nil, apperr.NotFound("Refresh token")
	}
	delete(m.byValue, value)
	delete(m.byDevice, deviceKey(token.UserID, token.UserAgent))
	return token, nil
}

func (m *memTokenRepo) FindByDevice(_ context.Context, userID, userAgent string) (*RefreshToken, error) {
	value, ok := m.byDevice[deviceKey(userID, userAgent)]
	if !ok {
		return nil, apperr.NotFound("Session")
	}
	token := m.byValue[value]
	if token.Expired(time.Now()) {
		return nil, apperr.NotFound("Session")
	}
	copied := *token
	return &copied, nil
}

// stubTokenProvider mints predictable, unsigned access tokens.
type stubTokenProvider struct{}

func (stubTokenProvider) GenerateAccessToken(userID, _ string, _ sec.Roles, _ time.Duration) (string, error) {
	return "access-token-for-" + userID, nil
}

// # Fixtures

const (
	testPassword  = "sw0rdf1sh"
	testUserAgent = "Mozilla/5.0 (X11; Linux x86_64)"
)

func newTestService(t *testing.T) (*Service, *memUserRepo, *memTokenRepo) {
	t.Helper()

	users := newMemUserRepo()
	tokens := newMemTokenRepo()
	resolver := identity.NewResolver(users, nopCache{}, 900)
	service := NewService(resolver, users, tokens, stubTokenProvider{}, 15*time.Minute)

	return service, users, tokens
}

func seedUser(t *testing.T, users *memUserRepo, email string) *identity.User {
	t.Helper()

	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)

	user := &identity.User{
		ID:           "0192e4a1-7c1d-7e2b-b1a4-9d2f6c3e8a01",
		Email:        email,
		PasswordHash: hash,
		Roles:        sec.Roles{sec.RoleUser},
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

// # Registration

func TestService_Register_AssignsDefaultRole(t *testing.T) {
	service, _, _ := newTestService(t)

	user, err := service.Register(context.Background(), RegisterInput{
		Email:    "New.Reader@Example.com",
		Password: testPassword,
	})

	require.NoError(t, err)
	assert.Equal(t, "new.reader@example.com", user.Email, "email must be stored lowercase")
	assert.Equal(t, sec.Roles{sec.RoleUser}, user.Roles)
	assert.NotEqual(t, testPassword, user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash(testPassword, user.PasswordHash))
}

func TestService_Register_DuplicateEmailConflicts(t *testing.T) {
	service, users, _ := newTestService(t)
	seedUser(t, users, "taken@example.com")

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "Taken@Example.com",
		Password: testPassword,
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusConflict, appError.HTTPStatus)
}

// # Login

func TestService_Login_Succeeds(t *testing.T) {
	service, users, tokens := newTestService(t)
	user := seedUser(t, users, "reader@example.com")

	session, err := service.Login(context.Background(), LoginInput{
		Email:     "reader@example.com",
		Password:  testPassword,
		UserAgent: testUserAgent,
	})

	require.NoError(t, err)
	assert.Equal(t, "access-token-for-"+user.ID, session.AccessToken)
	assert.Equal(t, user.ID, session.RefreshToken.UserID)
	assert.Equal(t, testUserAgent, session.RefreshToken.UserAgent)
	assert.Len(t, tokens.byValue, 1)
}

func TestService_Login_BadCredentialsAreIndistinguishable(t *testing.T) {
	service, users, _ := newTestService(t)
	seedUser(t, users, "reader@example.com")

	// Wrong password for an existing account.
	_, wrongPasswordErr := service.Login(context.Background(), LoginInput{
		Email:     "reader@example.com",
		Password:  "not-the-password",
		UserAgent: testUserAgent,
	})

	// Unknown account entirely.
	_, unknownUserErr := service.Login(context.Background(), LoginInput{
		Email:     "ghost@example.com",
		Password:  testPassword,
		UserAgent: testUserAgent,
	})

	require.Error(t, wrongPasswordErr)
	require.Error(t, unknownUserErr)
	assert.Equal(t, wrongPasswordErr.Error(), unknownUserErr.Error(),
		"the API must not reveal whether the account exists")
	assert.Equal(t, http.StatusUnauthorized, apperr.As(wrongPasswordErr).HTTPStatus)
}

func TestService_Login_SameDeviceRotatesToken(t *testing.T) {
	service, users, tokens := newTestService(t)
	seedUser(t, users, "reader@example.com")

	input := LoginInput{Email: "reader@example.com", Password: testPassword, UserAgent: testUserAgent}

	first, err := service.Login(context.Background(), input)
	require.NoError(t, err)

	second, err := service.Login(context.Background(), input)
	require.NoError(t, err)

	// One live token per device: the first value is dead.
	assert.Len(t, tokens.byValue, 1)
	assert.NotEqual(t, first.RefreshToken.Token, second.RefreshToken.Token)
	_, err = service.Refresh(context.Background(), first.RefreshToken.Token, testUserAgent)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
}

func TestService_Login_SecondDeviceKeepsFirstSession(t *testing.T) {
	service, users, tokens := newTestService(t)
	seedUser(t, users, "reader@example.com")

	_, err := service.Login(context.Background(), LoginInput{
		Email: "reader@example.com", Password: testPassword, UserAgent: "device-a",
	})
	require.NoError(t, err)

	_, err = service.Login(context.Background(), LoginInput{
		Email: "reader@example.com", Password: testPassword, UserAgent: "device-b",
	})
	require.NoError(t, err)

	assert.Len(t, tokens.byValue, 2, "distinct devices hold independent sessions")
}

// # Refresh

func TestService_Refresh_IsSingleUse(t *testing.T) {
	service, users, _ := newTestService(t)
	seedUser(t, users, "reader@example.com")

	session, err := service.Login(context.Background(), LoginInput{
		Email: "reader@example.com", Password: testPassword, UserAgent: testUserAgent,
	})
	require.NoError(t, err)

	rotated, err := service.Refresh(context.Background(), session.RefreshToken.Token, testUserAgent)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken.Token, rotated.RefreshToken.Token)

	// Replaying the consumed value must fail.
	_, err = service.Refresh(context.Background(), session.RefreshToken.Token, testUserAgent)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
}

func TestService_Refresh_ExpiredTokenRejected(t *testing.T) {
	service, users, tokens := newTestService(t)
	user := seedUser(t, users, "reader@example.com")

	expired := &RefreshToken{
		Token:     "expired-value",
		UserID:    user.ID,
		UserAgent: testUserAgent,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, tokens.Upsert(context.Background(), expired))

	_, err := service.Refresh(context.Background(), "expired-value", testUserAgent)

	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)

	// The expired row was still consumed; replay now reports the same 401.
	_, err = service.Refresh(context.Background(), "expired-value", testUserAgent)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
}

func TestService_Refresh_UnknownTokenRejected(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Refresh(context.Background(), "never-issued", testUserAgent)

	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperr.As(err).HTTPStatus)
}

// # Logout

func TestService_Logout_IsIdempotent(t *testing.T) {
	service, users, tokens := newTestService(t)
	seedUser(t, users, "reader@example.com")

	session, err := service.Login(context.Background(), LoginInput{
		Email: "reader@example.com", Password: testPassword, UserAgent: testUserAgent,
	})
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), session.RefreshToken.Token))
	assert.Empty(t, tokens.byValue)

	// Second logout with the same (now unknown) value still succeeds.
	require.NoError(t, service.Logout(context.Background(), session.RefreshToken.Token))
}

// # Introspection

func TestService_CurrentSession(t *testing.T) {
	service, users, _ := newTestService(t)
	user := seedUser(t, users, "reader@example.com")

	session, err := service.Login(context.Background(), LoginInput{
		Email: "reader@example.com", Password: testPassword, UserAgent: testUserAgent,
	})
	require.NoError(t, err)

	current, err := service.CurrentSession(context.Background(), user.ID, testUserAgent)
	require.NoError(t, err)
	assert.Equal(t, session.RefreshToken.Token, current.Token)

	// A different device has no session.
	_, err = service.CurrentSession(context.Background(), user.ID, "other-device")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
