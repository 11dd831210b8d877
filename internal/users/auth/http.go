// Copyright (c) 2026 Authgate. All rights reserved.

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pvbalyuk/authgate/internal/platform/constants"
	"github.com/pvbalyuk/authgate/internal/platform/middleware"
	requestutil "github.com/pvbalyuk/authgate/internal/platform/request"
	"github.com/pvbalyuk/authgate/internal/platform/respond"
	"github.com/pvbalyuk/authgate/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// This layer is strictly responsible for transport concerns: payload
// validation, cookie handling, status codes. Refresh tokens travel only in
// an HttpOnly cookie scoped to the auth route tree; JSON bodies carry the
// access token.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and establishes a device session.
//   - POST /refresh  : Rotates the refresh token, mints a new JWT.
//   - POST /logout   : Invalidates the refresh token, clears the cookie.
//   - GET  /session  : Introspects the caller's live device session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/session", handler.session)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	ConfirmationPassword string `json:"confirmation_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// # Handlers

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input (including the password confirmation check)
and persists a new account with the default USER role.

Request:
  - Body: registerRequest (Email, Password, ConfirmationPassword)

Response:
  - 201: User: Created account profile (no credentials issued)
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Equal(FieldConfirmationPassword, input.Password, input.ConfirmationPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session for this device.

POST /api/v1/auth/login

Description: Verifies credentials, mints a JWT access token, and injects the
rotated refresh token as a secure cookie.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Access token and user profile
  - 401: ErrUnauthorized: Incorrect login or password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken)

	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldUser:        session.User,
	})
}

/*
Refresh rotates the session credentials.

POST /api/v1/auth/refresh

Description: Consumes the refresh token cookie (single-use) and issues a
fresh access token plus a replacement refresh cookie.

Response:
  - 200: RefreshResponse: New access token credentials
  - 401: ErrUnauthorized: Missing, invalid, expired, or replayed token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken, err := requestutil.RefreshTokenCookie(request, constants.RefreshTokenCookieName)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Refresh(request.Context(), refreshToken, request.UserAgent())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken)

	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int64(handler.authService.AccessTokenTTL() / time.Second),
	})
}

/*
Logout terminates the current device session.

POST /api/v1/auth/logout

Description: Invalidates the refresh token (if any) and clears the cookie.
Safe to call repeatedly; a missing or stale cookie is not an error.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)

	if err == nil && cookie != nil && cookie.Value != "" {
		if err := handler.authService.Logout(request.Context(), cookie.Value); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
Session introspects the caller's live refresh session for this device.

GET /api/v1/auth/session

Description: Returns the server-side session record (device, expiry) bound
to the authenticated user and the calling User-Agent. The opaque token value
itself is never included.

Response:
  - 200: RefreshToken: Session metadata
  - 401: ErrUnauthorized: Not authenticated
  - 404: ErrNotFound: No live session for this device
*/
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.CurrentSession(request.Context(), claims.UserID, request.UserAgent())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

// # Cookie Helpers

// setRefreshCookie installs the rotated refresh token, scoped to the auth
// route tree so it is never sent to unrelated endpoints.
func setRefreshCookie(writer http.ResponseWriter, token *RefreshToken) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token.Token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  token.ExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie on the client.
func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
