// Copyright (c) 2026 Authgate. All rights reserved.

package auth

import "context"

// # Token Data Access

// TokenRepository defines the durable-store contract for refresh tokens.
//
// # Concurrency
//
// Every mutation is a single atomic statement. Rotation relies on the
// store's unique (user, device) constraint rather than a read-then-write
// sequence, so concurrent logins from the same device cannot leave two live
// rows behind. Consumption deletes and returns in one statement, so a
// replayed token loses the race deterministically.
type TokenRepository interface {

	/*
		Upsert atomically installs token as the single live refresh token for
		its (UserID, UserAgent) pair, replacing any previous row.

		Parameters:
		  - context: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Storage failures
	*/
	Upsert(context context.Context, token *RefreshToken) error

	/*
		Consume atomically deletes the row matching value and returns it.
		Exactly one caller can succeed for a given value.

		Parameters:
		  - context: context.Context
		  - value: string (opaque token value)

		Returns:
		  - *RefreshToken: The consumed row, possibly already expired
		  - error: apperr.NotFound when no row matched, storage failures otherwise
	*/
	Consume(context context.Context, value string) (*RefreshToken, error)

	/*
		FindByDevice returns the live (unexpired) token for a (user, device)
		pair without consuming it. Used for session introspection only.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - userAgent: string

		Returns:
		  - *RefreshToken: The live session row
		  - error: apperr.NotFound when none exists, storage failures otherwise
	*/
	FindByDevice(context context.Context, userID, userAgent string) (*RefreshToken, error)
}
