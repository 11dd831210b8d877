// Copyright (c) 2026 Authgate. All rights reserved.

/*
Package duration parses human-readable lifetime strings into seconds.

It understands the compact notation used in environment configuration,
such as "15m" for fifteen minutes or "30d" for thirty days.

Grammar:

  - A bare integer is already a number of seconds and is returned as-is.
  - Otherwise the trailing suffix selects a multiplier: s, m, h, d, mo, y.
  - "mo" (months) is a two-character token so it cannot collide with "m" (minutes).

This is the canonical way to express the access-token lifetime and derived
cache TTLs across the platform.
*/
package duration

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a lifetime string has an unknown suffix
// or a non-integer prefix.
var ErrInvalidFormat = errors.New("duration: invalid time string")

// # Multiplier Table

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * 60
	secondsPerDay    = 60 * 60 * 24
	secondsPerMonth  = 60 * 60 * 24 * 30
	secondsPerYear   = 60 * 60 * 24 * 365
)

// # Parsing

/*
Parse converts a lifetime string into a canonical number of seconds.

Parameters:
  - value: string ("900", "15m", "12h", "30d", "6mo", "1y")

Returns:
  - int64: Total seconds
  - error: ErrInvalidFormat on an unknown suffix or malformed prefix
*/
func Parse(value string) (int64, error) {

	// A plain integer is already expressed in seconds.
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return seconds, nil
	}

	// The month token is two characters and must be checked before the
	// single-character suffixes ("6mo" would otherwise match "o").
	if strings.HasSuffix(value, "mo") {
		return applyMultiplier(value[:len(value)-2], secondsPerMonth)
	}

	if value == "" {
		return 0, ErrInvalidFormat
	}

	// Only the last character participates in unit selection.
	prefix := value[:len(value)-1]
	switch value[len(value)-1] {
	case 's':
		return applyMultiplier(prefix, 1)
	case 'm':
		return applyMultiplier(prefix, secondsPerMinute)
	case 'h':
		return applyMultiplier(prefix, secondsPerHour)
	case 'd':
		return applyMultiplier(prefix, secondsPerDay)
	case 'y':
		return applyMultiplier(prefix, secondsPerYear)
	default:
		return 0, ErrInvalidFormat
	}
}

// applyMultiplier parses the integer prefix and scales it by the unit multiplier.
func applyMultiplier(prefix string, multiplier int64) (int64, error) {
	amount, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return amount * multiplier, nil
}
