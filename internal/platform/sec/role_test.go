// Copyright (c) 2026 Authgate. All rights reserved.

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvbalyuk/authgate/internal/platform/sec"
)

/*
TestRoles_Has tests the authorization predicate over role sets.
*/
func TestRoles_Has(t *testing.T) {
	tests := []struct {
		name     string
		roles    sec.Roles
		required sec.Role
		allowed  bool
	}{
		{"member_of_set", sec.Roles{sec.RoleUser, sec.RoleAdmin}, sec.RoleAdmin, true},
		{"single_role", sec.Roles{sec.RoleUser}, sec.RoleUser, true},
		{"missing_role", sec.Roles{sec.RoleUser}, sec.RoleAdmin, false},
		{"empty_set", sec.Roles{}, sec.RoleUser, false},
		{"nil_set", nil, sec.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.roles.Has(tt.required))
		})
	}
}

/*
TestParseRole verifies that only the closed role set is accepted.
*/
func TestParseRole(t *testing.T) {
	role, err := sec.ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, role)

	role, err = sec.ParseRole("USER")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUser, role)

	_, err = sec.ParseRole("SUPERUSER")
	require.Error(t, err)

	// The set is case-sensitive: lowercase variants are not roles.
	_, err = sec.ParseRole("admin")
	require.Error(t, err)
}
