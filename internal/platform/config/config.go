// Copyright (c) 2026 Authgate. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, JWT) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/pvbalyuk/authgate/pkg/duration"
)

// # Configuration Schema

// Config holds all runtime configuration for the Authgate API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"PORT"         envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for access-token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// JWTExpiry is the access-token lifetime as a compact duration string
	// ("15m", "12h", "30d"). It also drives the identity-cache TTL.
	JWTExpiry string `env:"JWT_EXP" envDefault:"15m"`

	// ExtraOrigins is a comma-separated list of additional origins allowed
	// by CORS in production (e.g. staging frontends).
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Reject an unparseable token lifetime at startup rather than on the
	// first login.
	if _, err := duration.Parse(cfg.JWTExpiry); err != nil {
		return nil, fmt.Errorf("config: invalid JWT_EXP %q: %w", cfg.JWTExpiry, err)
	}

	return cfg, nil
}

// AccessTokenSeconds returns the configured access-token lifetime in seconds.
//
// [Load] has already validated the string, so a parse failure here is
// impossible for a loaded config.
func (c *Config) AccessTokenSeconds() int64 {
	seconds, _ := duration.Parse(c.JWTExpiry)
	return seconds
}

// AllowedOrigins returns the extra CORS origins as a cleaned slice.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	parts := strings.Split(c.ExtraOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
