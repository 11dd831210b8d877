// Copyright (c) 2026 Authgate. All rights reserved.

package auth

import "time"

// # Token Lifetimes

// RefreshTokenTTL is the validity window of a refresh token. One month:
// long enough that an active device stays signed in (each rotation extends
// the window), short enough that an abandoned session dies on its own.
const RefreshTokenTTL = 30 * 24 * time.Hour

// # Field Identifiers

// Field names for validation errors and response payloads.
const (
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldConfirmationPassword = "confirmation_password"
	FieldAccessToken          = "access_token"
	FieldTokenType            = "token_type"
	FieldExpiresIn            = "expires_in"
	FieldUser                 = "user"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6
