// Copyright (c) 2026 Authgate. All rights reserved.

package duration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvbalyuk/authgate/pkg/duration"
)

/*
TestParse_ValidInputs verifies the suffix multiplier table.
*/
func TestParse_ValidInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"bare_integer", "900", 900},
		{"zero", "0", 0},
		{"seconds", "45s", 45},
		{"minutes", "15m", 15 * 60},
		{"hours", "12h", 12 * 3600},
		{"days", "30d", 30 * 86400},
		{"months", "6mo", 6 * 2592000},
		{"single_month", "1mo", 2592000},
		{"years", "1y", 31536000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := duration.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestParse_InvalidInputs verifies that malformed strings fail with ErrInvalidFormat.
*/
func TestParse_InvalidInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unknown_suffix", "15w"},
		{"suffix_only", "m"},
		{"non_integer_prefix", "1.5h"},
		{"garbage", "soon"},
		{"month_without_prefix", "mo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := duration.Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, duration.ErrInvalidFormat)
		})
	}
}
