// Copyright (c) 2026 Authgate. All rights reserved.

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Classification
//
//   - pgx.ErrNoRows            -> NOT_FOUND for the named resource
//   - SQLSTATE 23505           -> CONFLICT (unique constraint violation)
//   - connection-class errors  -> UNAVAILABLE (outage, never masked as 401)
//   - everything else          -> INTERNAL_ERROR
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return apperr.Conflict(resource + " already exists")
		case pgerrcode.IsConnectionException(pgErr.Code):
			return apperr.Unavailable(err)
		}
		return apperr.Internal(err)
	}

	// Dead connections and cancelled contexts surface outside PgError.
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return apperr.Unavailable(err)
	}

	return apperr.Internal(err)
}
