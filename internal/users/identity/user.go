// Copyright (c) 2026 Authgate. All rights reserved.

/*
Package identity implements user identity resolution for the platform.

It defines the core User entity, the durable-store contract for accounts and
their role sets, and the cache-aside Resolver that every authentication and
authorization path reads identities through.

# Architecture

This layer is the "Truth" of the system. The durable store is always
authoritative; the cache is a read accelerator and never a source of truth.
*/
package identity

import (
	"strings"
	"time"

	"github.com/pvbalyuk/authgate/internal/platform/sec"
)

// # Domain Entities

// User represents a registered account.
//
// Email is stored lowercase: every boundary normalizes through
// [NormalizeEmail], so lookups and the unique constraint are effectively
// case-insensitive.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Roles        sec.Roles `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail folds an email address to its canonical stored form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Field Identifiers

// Field names shared by validation errors across the identity domain.
const (
	FieldEmail = "email"
	FieldRole  = "role"
)
