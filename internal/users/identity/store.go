// Copyright (c) 2026 Authgate. All rights reserved.

package identity

import (
	"context"
	"errors"

	"github.com/pvbalyuk/authgate/internal/platform/sec"
)

// ErrCacheMiss is returned by [Cache.Get] when the key is absent or expired.
var ErrCacheMiss = errors.New("identity: cache miss")

// # User Data Access

// UserRepository defines the durable-store contract for user accounts.
type UserRepository interface {

	/*
		FindByIDOrEmail returns the account whose id OR email equals key,
		including its role set, in a single query.

		Parameters:
		  - context: context.Context
		  - key: string (UUID or lowercase email)

		Returns:
		  - *User: Hydrated entity with roles
		  - error: apperr.NotFound or storage failures
	*/
	FindByIDOrEmail(context context.Context, key string) (*User, error)

	/*
		Create persists a brand-new account together with its initial role set.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on a duplicate email, or storage failures
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists changes to mutable profile fields (currently email).

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		Delete permanently removes the account. Role and refresh-token rows
		are removed by the schema's cascade rules.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound if no row matched, or storage failures
	*/
	Delete(context context.Context, id string) error

	/*
		List returns one page of accounts plus the total row count.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []User: Page of accounts with roles
		  - int: Total account count
		  - error: Storage failures
	*/
	List(context context.Context, limit, offset int) ([]User, int, error)

	/*
		ListRoles returns the role set currently held by the account.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - sec.Roles: Possibly empty set
		  - error: Storage failures
	*/
	ListRoles(context context.Context, userID string) (sec.Roles, error)

	/*
		InsertRole adds a role to the account's set.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: sec.Role

		Returns:
		  - error: apperr.Conflict if the role is already held
	*/
	InsertRole(context context.Context, userID string, role sec.Role) error

	/*
		DeleteRole removes a role from the account's set.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - role: sec.Role

		Returns:
		  - error: apperr.Conflict if the role was not held
	*/
	DeleteRole(context context.Context, userID string, role sec.Role) error
}

// # Cache Data Access

// Cache defines the volatile key-value contract for identity snapshots.
//
// Keys are whatever string a caller resolved by — a user id and an email are
// cached independently. Values are full snapshots, so overwrites are
// idempotent and carry no lost-update risk.
type Cache interface {

	/*
		Get retrieves the cached snapshot stored under key.

		Returns:
		  - *User: Cached snapshot
		  - error: ErrCacheMiss when absent/expired, connectivity errors otherwise
	*/
	Get(context context.Context, key string) (*User, error)

	/*
		Set stores a snapshot under key for ttlSeconds.

		Returns:
		  - error: Storage failures
	*/
	Set(context context.Context, key string, user *User, ttlSeconds int64) error

	/*
		Del removes the given keys. Missing keys are not an error.

		Returns:
		  - error: Connectivity failures
	*/
	Del(context context.Context, keys ...string) error
}
