// Copyright (c) 2026 Authgate. All rights reserved.

package identity

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pvbalyuk/authgate/internal/platform/dberr"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
)

// PostgresUserRepository implements [UserRepository] backed by pgxpool.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository wires the repository to a live connection pool.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// # Queries

// userColumns aggregates the role set per account so a single round-trip
// hydrates the full entity.
const userColumns = `
	a.id::text,
	a.email,
	a.passwordhash,
	COALESCE(ARRAY_AGG(r.role ORDER BY r.role) FILTER (WHERE r.role IS NOT NULL), '{}'),
	a.createdat,
	a.updatedat`

const findUserQuery = `
	SELECT` + userColumns + `
	FROM users.account a
	LEFT JOIN users.account_role r ON r.userid = a.id
	WHERE a.id::text = $1 OR a.email = $1
	GROUP BY a.id`

const listUsersQuery = `
	SELECT` + userColumns + `
	FROM users.account a
	LEFT JOIN users.account_role r ON r.userid = a.id
	GROUP BY a.id
	ORDER BY a.createdat DESC, a.id
	LIMIT $1 OFFSET $2`

const countUsersQuery = `SELECT COUNT(*) FROM users.account`

const insertUserQuery = `
	INSERT INTO users.account (id, email, passwordhash)
	VALUES ($1, $2, $3)
	RETURNING createdat, updatedat`

const updateUserQuery = `
	UPDATE users.account
	SET email = $2, updatedat = NOW()
	WHERE id::text = $1
	RETURNING updatedat`

const deleteUserQuery = `DELETE FROM users.account WHERE id::text = $1`

const listRolesQuery = `SELECT role FROM users.account_role WHERE userid::text = $1 ORDER BY role`

const insertRoleQuery = `INSERT INTO users.account_role (userid, role) VALUES ($1, $2)`

const deleteRoleQuery = `DELETE FROM users.account_role WHERE userid::text = $1 AND role = $2`

// # Read Operations

/*
FindByIDOrEmail fetches one account by primary key or unique email.

The two lookup dimensions share one query so callers never need to know
which kind of key they hold.
*/
func (repository *PostgresUserRepository) FindByIDOrEmail(ctx context.Context, key string) (*User, error) {
	row := repository.pool.QueryRow(ctx, findUserQuery, key)

	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

// List returns one page of accounts (newest first) plus the total count.
func (repository *PostgresUserRepository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := repository.pool.QueryRow(ctx, countUsersQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	rows, err := repository.pool.Query(ctx, listUsersQuery, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}
	defer rows.Close()

	users := make([]User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "User")
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	return users, total, nil
}

// ListRoles returns the roles currently held by the account.
func (repository *PostgresUserRepository) ListRoles(ctx context.Context, userID string) (sec.Roles, error) {
	rows, err := repository.pool.Query(ctx, listRolesQuery, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	defer rows.Close()

	roles := sec.Roles{}
	for rows.Next() {
		var role sec.Role
		if err := rows.Scan(&role); err != nil {
			return nil, dberr.Wrap(err, "Role")
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Role")
	}

	return roles, nil
}

// # Write Operations

/*
Create inserts the account row and its initial role set in one transaction,
so a partially-registered user can never be observed.
*/
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	defer func() { _ = transaction.Rollback(ctx) }()

	row := transaction.QueryRow(ctx, insertUserQuery, user.ID, user.Email, user.PasswordHash)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return dberr.Wrap(err, "User")
	}

	for _, role := range user.Roles {
		if _, err := transaction.Exec(ctx, insertRoleQuery, user.ID, role); err != nil {
			return dberr.Wrap(err, "Role")
		}
	}

	if err := transaction.Commit(ctx); err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

// Update persists the mutable profile fields and refreshes UpdatedAt.
func (repository *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	row := repository.pool.QueryRow(ctx, updateUserQuery, user.ID, user.Email)
	if err := row.Scan(&user.UpdatedAt); err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

// Delete removes the account; roles and refresh tokens cascade.
func (repository *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	tag, err := repository.pool.Exec(ctx, deleteUserQuery, id)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User")
	}

	return nil
}

// InsertRole adds a role; the (userid, role) primary key rejects duplicates,
// which dberr surfaces as a Conflict.
func (repository *PostgresUserRepository) InsertRole(ctx context.Context, userID string, role sec.Role) error {
	if _, err := repository.pool.Exec(ctx, insertRoleQuery, userID, role); err != nil {
		return dberr.Wrap(err, "Role")
	}

	return nil
}

// DeleteRole removes a role from the account's set.
func (repository *PostgresUserRepository) DeleteRole(ctx context.Context, userID string, role sec.Role) error {
	tag, err := repository.pool.Exec(ctx, deleteRoleQuery, userID, role)
	if err != nil {
		return dberr.Wrap(err, "Role")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Role")
	}

	return nil
}

// # Scanning

// scanUser maps one result row onto a User entity.
func scanUser(row pgx.Row) (*User, error) {
	var user User
	var roles []string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Roles = make(sec.Roles, 0, len(roles))
	for _, role := range roles {
		user.Roles = append(user.Roles, sec.Role(role))
	}

	return &user, nil
}
