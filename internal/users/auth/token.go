// Copyright (c) 2026 Authgate. All rights reserved.

/*
Package auth implements the credential lifecycle: registration, login,
refresh-token rotation, and session introspection.

# Architecture

Access tokens are short-lived RS256 JWTs and are verified statelessly.
Refresh tokens are opaque UUID values persisted server-side, bound to a
(user, device) pair, and consumed exactly once. The device dimension is the
caller's User-Agent string: logging in from a second device creates a second
session, while logging in again from the same device replaces it.
*/
package auth

import "time"

// # Domain Entities

// RefreshToken is one long-lived, single-use credential.
//
// The Token value is opaque and carries no claims; its only power is that it
// matches a stored row. It travels exclusively in an HttpOnly cookie and is
// never serialized into JSON responses.
type RefreshToken struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	UserAgent string    `json:"user_agent"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token's validity window has passed.
//
// Expired rows may still exist in storage until their next rotation or
// consumption attempt; they are inert either way.
func (token *RefreshToken) Expired(now time.Time) bool {
	return !token.ExpiresAt.After(now)
}
