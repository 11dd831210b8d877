// Copyright (c) 2026 Authgate. All rights reserved.

package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pvbalyuk/authgate/internal/platform/dberr"
)

// PostgresTokenRepository implements [TokenRepository] backed by pgxpool.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ TokenRepository = (*PostgresTokenRepository)(nil)

// NewPostgresTokenRepository wires the repository to a live connection pool.
func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

// # Queries

// upsertTokenQuery leans on the UNIQUE (userid, useragent) constraint: the
// conflict arm overwrites the previous token value in the same statement, so
// rotation is atomic and the at-most-one-live-token invariant holds under
// concurrent logins.
const upsertTokenQuery = `
	INSERT INTO users.refresh_token (token, userid, useragent, expiresat)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (userid, useragent)
	DO UPDATE SET token = EXCLUDED.token, expiresat = EXCLUDED.expiresat`

// consumeTokenQuery deletes and returns in one statement. Two concurrent
// refreshes with the same token value race on the row lock; the loser sees
// zero rows and maps to NotFound.
const consumeTokenQuery = `
	DELETE FROM users.refresh_token
	WHERE token = $1
	RETURNING token, userid::text, useragent, expiresat`

const findByDeviceQuery = `
	SELECT token, userid::text, useragent, expiresat
	FROM users.refresh_token
	WHERE userid::text = $1 AND useragent = $2 AND expiresat > NOW()`

// # Operations

// Upsert installs token as the single live credential for its device slot.
func (repository *PostgresTokenRepository) Upsert(ctx context.Context, token *RefreshToken) error {
	_, err := repository.pool.Exec(ctx, upsertTokenQuery,
		token.Token,
		token.UserID,
		token.UserAgent,
		token.ExpiresAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Refresh token")
	}

	return nil
}

// Consume deletes the row matching value and returns it, or NotFound.
func (repository *PostgresTokenRepository) Consume(ctx context.Context, value string) (*RefreshToken, error) {
	row := repository.pool.QueryRow(ctx, consumeTokenQuery, value)

	var token RefreshToken
	err := row.Scan(&token.Token, &token.UserID, &token.UserAgent, &token.ExpiresAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Refresh token")
	}

	return &token, nil
}

// FindByDevice returns the live session row for a (user, device) pair.
func (repository *PostgresTokenRepository) FindByDevice(ctx context.Context, userID, userAgent string) (*RefreshToken, error) {
	row := repository.pool.QueryRow(ctx, findByDeviceQuery, userID, userAgent)

	var token RefreshToken
	err := row.Scan(&token.Token, &token.UserID, &token.UserAgent, &token.ExpiresAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Session")
	}

	return &token, nil
}
