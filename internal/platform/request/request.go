// Copyright (c) 2026 Authgate. All rights reserved.

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
	"github.com/pvbalyuk/authgate/internal/platform/ctxutil"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
	"github.com/pvbalyuk/authgate/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Claims extracts the authenticated user claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.AccessClaims {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredClaims ensures the request is authenticated and returns the user claims.

Returns:
  - *sec.AccessClaims: The authenticated user claims
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.AccessClaims, error) {

	// Get user claims
	claims := ctxutil.GetAuthUser(request.Context())

	// If the user is not authenticated, return an error
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return claims, nil
}

/*
RefreshTokenCookie extracts the refresh token cookie value from the request.

Returns:
  - string: The opaque refresh token
  - error: apperr.Unauthorized if the cookie is missing or empty
*/
func RefreshTokenCookie(request *http.Request, cookieName string) (string, error) {
	cookie, err := request.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", apperr.Unauthorized("Missing refresh token in cookies")
	}
	return cookie.Value, nil
}
