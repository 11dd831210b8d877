// Copyright (c) 2026 Authgate. All rights reserved.

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
	"github.com/pvbalyuk/authgate/internal/users/identity"
	"github.com/pvbalyuk/authgate/pkg/uuidv7"
)

// # Definitions & Constructors

// TokenProvider abstracts access-token minting so the service can be unit
// tested without RSA keys on disk.
type TokenProvider interface {
	GenerateAccessToken(userID, email string, roles sec.Roles, timeToLive time.Duration) (string, error)
}

// Service implements the credential lifecycle use cases.
//
// Reads of user identities go through the cache-aside [identity.Resolver];
// the registration conflict check deliberately goes straight to the durable
// store so a stale cache entry can never shadow the uniqueness decision.
type Service struct {
	resolver       *identity.Resolver
	users          identity.UserRepository
	tokens         TokenRepository
	tokenProvider  TokenProvider
	accessTokenTTL time.Duration
}

// NewService constructs the credential [Service].
//
// accessTokenTTL is the configured JWT lifetime; it also drives the
// expires_in values reported to clients.
func NewService(
	resolver *identity.Resolver,
	users identity.UserRepository,
	tokens TokenRepository,
	tokenProvider TokenProvider,
	accessTokenTTL time.Duration,
) *Service {
	return &Service{
		resolver:       resolver,
		users:          users,
		tokens:         tokens,
		tokenProvider:  tokenProvider,
		accessTokenTTL: accessTokenTTL,
	}
}

// AccessTokenTTL exposes the configured JWT lifetime for the HTTP layer.
func (service *Service) AccessTokenTTL() time.Duration {
	return service.accessTokenTTL
}

// # Inputs & Outputs

// RegisterInput carries a validated registration payload.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput carries a validated login payload plus the device dimension.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken *RefreshToken
	User         *identity.User
}

// # Use Cases

/*
Register creates a new account with a freshly hashed password and the
default USER role.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *identity.User: The created account
  - error: apperr.Conflict if the email is taken, storage failures otherwise
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*identity.User, error) {
	email := identity.NormalizeEmail(input.Email)

	// ── Step 1: Uniqueness pre-check (authoritative store, not cache) ──
	_, err := service.users.FindByIDOrEmail(ctx, email)
	if err == nil {
		return nil, apperr.Conflict("User with this email already registered")
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	// ── Step 2: Hash credentials ──
	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	// ── Step 3: Persist account + default role ──
	// The unique email constraint is the real arbiter: a racing duplicate
	// slips past the pre-check and surfaces here as a Conflict.
	user := &identity.User{
		ID:           uuidv7.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        sec.Roles{sec.RoleUser},
	}
	if err := service.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
Login verifies credentials and establishes a session for the calling device.

A missing account and a wrong password produce the same generic 401, so the
endpoint cannot be used to probe which emails are registered. Store outages
are NOT masked this way; they surface as 503.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *Session: Access token, rotated refresh token, and the user profile
  - error: apperr.Unauthorized on bad credentials
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	// ── Step 1: Resolve identity (cache-aside) ──
	user, err := service.resolver.Resolve(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Incorrect login or password")
		}
		return nil, err
	}

	// ── Step 2: Verify password ──
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Incorrect login or password")
	}

	// ── Step 3: Mint token pair ──
	return service.issueSession(ctx, user, input.UserAgent)
}

/*
Refresh consumes a refresh token and issues a fresh token pair.

Consumption is single-use: the presented value is atomically deleted, so a
second presentation (replay, or the loser of a concurrent race) fails with
401. The new token is bound to the PRESENTING device's User-Agent.

Parameters:
  - ctx: context.Context
  - refreshToken: string (opaque cookie value)
  - userAgent: string

Returns:
  - *Session: New access token and refresh token
  - error: apperr.Unauthorized on unknown, expired, or replayed tokens
*/
func (service *Service) Refresh(ctx context.Context, refreshToken, userAgent string) (*Session, error) {
	// ── Step 1: Consume (single-use) ──
	consumed, err := service.tokens.Consume(ctx, refreshToken)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}

	// ── Step 2: Reject expired rows (inert but possibly still stored) ──
	if consumed.Expired(time.Now()) {
		return nil, apperr.Unauthorized("Refresh token expired")
	}

	// ── Step 3: Re-resolve the owner ──
	user, err := service.resolver.Resolve(ctx, consumed.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			// Account deleted since the token was minted.
			return nil, apperr.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}

	// ── Step 4: Mint replacement pair ──
	return service.issueSession(ctx, user, userAgent)
}

/*
Logout invalidates the presented refresh token.

Idempotent: logging out with an unknown or already-consumed token succeeds,
since the desired end state (no live token) already holds.
*/
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	_, err := service.tokens.Consume(ctx, refreshToken)
	if err != nil && !apperr.IsNotFound(err) {
		return err
	}

	return nil
}

/*
CurrentSession returns the live refresh-token record for the calling
(user, device) pair without consuming it.

Returns:
  - *RefreshToken: Session metadata (device, expiry)
  - error: apperr.NotFound when no live session exists for this device
*/
func (service *Service) CurrentSession(ctx context.Context, userID, userAgent string) (*RefreshToken, error) {
	return service.tokens.FindByDevice(ctx, userID, userAgent)
}

// # Internals

// issueSession mints the JWT + rotated refresh token for one device slot.
func (service *Service) issueSession(ctx context.Context, user *identity.User, userAgent string) (*Session, error) {
	accessToken, err := service.tokenProvider.GenerateAccessToken(
		user.ID,
		user.Email,
		user.Roles,
		service.accessTokenTTL,
	)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	// The refresh value is a random v4 UUID: unguessable and claim-free.
	refreshToken := &RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}
	if err := service.tokens.Upsert(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
