// Copyright (c) 2026 Authgate. All rights reserved.

/*
Package account implements administration of existing user accounts: the
directory listing, profile updates, deletion, and role management.

# Architecture

Reads go through the cache-aside [identity.Resolver]; every mutation ends
with a cache invalidation of BOTH lookup keys (id and email), so no
follow-up read can observe a pre-mutation snapshot.
*/
package account

import (
	"context"
	"fmt"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
	"github.com/pvbalyuk/authgate/internal/users/identity"
)

// # Definitions & Constructors

// Service implements account administration use cases.
type Service struct {
	users    identity.UserRepository
	resolver *identity.Resolver
}

// NewService constructs the account [Service].
func NewService(users identity.UserRepository, resolver *identity.Resolver) *Service {
	return &Service{users: users, resolver: resolver}
}

// UpdateInput carries the mutable profile fields. Nil means "leave as is".
type UpdateInput struct {
	Email *string
}

// # Use Cases

/*
List returns one page of the account directory plus the total count.

Parameters:
  - ctx: context.Context
  - limit: int
  - offset: int

Returns:
  - []identity.User: Page of accounts, newest first
  - int: Total account count
  - error: Storage failures
*/
func (service *Service) List(ctx context.Context, limit, offset int) ([]identity.User, int, error) {
	return service.users.List(ctx, limit, offset)
}

/*
Get resolves one account by id or email via the cache-aside read path.

Returns:
  - *identity.User: Hydrated account with roles
  - error: apperr.NotFound when no account matches
*/
func (service *Service) Get(ctx context.Context, idOrEmail string) (*identity.User, error) {
	return service.resolver.Resolve(ctx, idOrEmail)
}

/*
Update applies a partial profile update and invalidates cached snapshots.

The pre-change entity is loaded first so that an email change evicts the OLD
email key; the new email has no cached entry yet by definition.

Returns:
  - *identity.User: The updated account
  - error: apperr.NotFound, apperr.Conflict on a taken email
*/
func (service *Service) Update(ctx context.Context, id string, input UpdateInput) (*identity.User, error) {
	current, err := service.users.FindByIDOrEmail(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if input.Email != nil {
		updated.Email = identity.NormalizeEmail(*input.Email)
	}

	if err := service.users.Update(ctx, &updated); err != nil {
		return nil, err
	}

	if err := service.resolver.Invalidate(ctx, current); err != nil {
		return nil, err
	}

	return &updated, nil
}

/*
Delete permanently removes the account, its roles, and its refresh tokens
(via cascade), then invalidates cached snapshots.

Returns:
  - error: apperr.NotFound when the account does not exist
*/
func (service *Service) Delete(ctx context.Context, id string) error {
	current, err := service.users.FindByIDOrEmail(ctx, id)
	if err != nil {
		return err
	}

	if err := service.users.Delete(ctx, current.ID); err != nil {
		return err
	}

	return service.resolver.Invalidate(ctx, current)
}

/*
GrantRole adds a role to the account's set.

Returns:
  - *identity.User: The account with its updated role set
  - error: apperr.Conflict if the role is already held
*/
func (service *Service) GrantRole(ctx context.Context, userID string, role sec.Role) (*identity.User, error) {
	user, err := service.users.FindByIDOrEmail(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Re-read the role table rather than trusting the resolved snapshot.
	held, err := service.users.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if held.Has(role) {
		return nil, apperr.Conflict(fmt.Sprintf("User with id %s already has %s rights", user.ID, role))
	}
	user.Roles = held

	// The composite key is the arbiter under concurrency; a racing duplicate
	// grant surfaces from the store as the same Conflict.
	if err := service.users.InsertRole(ctx, user.ID, role); err != nil {
		return nil, err
	}

	user.Roles = append(user.Roles, role)

	if err := service.resolver.Invalidate(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
RevokeRole removes a role from the account's set.

Returns:
  - *identity.User: The account with its updated role set
  - error: apperr.Conflict if the role is not held
*/
func (service *Service) RevokeRole(ctx context.Context, userID string, role sec.Role) (*identity.User, error) {
	user, err := service.users.FindByIDOrEmail(ctx, userID)
	if err != nil {
		return nil, err
	}

	held, err := service.users.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !held.Has(role) {
		return nil, apperr.Conflict(fmt.Sprintf("User with id %s does not have %s rights", user.ID, role))
	}
	user.Roles = held

	if err := service.users.DeleteRole(ctx, user.ID, role); err != nil {
		return nil, err
	}

	remaining := make(sec.Roles, 0, len(user.Roles))
	for _, held := range user.Roles {
		if held != role {
			remaining = append(remaining, held)
		}
	}
	user.Roles = remaining

	if err := service.resolver.Invalidate(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
