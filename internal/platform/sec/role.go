// Copyright (c) 2026 Authgate. All rights reserved.

package sec

import "fmt"

// # User Roles

// Role represents one authorization grant held by an account.
//
// The set of roles is closed: values outside the constants below are
// rejected at every boundary.
type Role string

const (
	// Default role for every registered account
	RoleUser Role = "USER"

	// Unrestricted administrative access
	RoleAdmin Role = "ADMIN"
)

// ParseRole validates a raw string against the closed role set.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleUser, RoleAdmin:
		return Role(value), nil
	default:
		return "", fmt.Errorf("sec: unknown role %q", value)
	}
}

// # Role Sets

// Roles is the unordered set of roles held by an account. Duplicates are
// never stored; the backing table enforces this with a composite key.
type Roles []Role

// Has reports whether the set contains the required role.
//
// This is the whole authorization predicate: a privileged action is allowed
// if and only if the verified caller's role set contains the required role.
// Callers must derive the set from verified access-token claims, never from
// client-supplied input.
func (roles Roles) Has(required Role) bool {
	for _, role := range roles {
		if role == required {
			return true
		}
	}
	return false
}

// Strings converts the set to plain strings for logging and claims encoding.
func (roles Roles) Strings() []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}
