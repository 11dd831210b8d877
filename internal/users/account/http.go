// Copyright (c) 2026 Authgate. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pvbalyuk/authgate/internal/platform/apperr"
	"github.com/pvbalyuk/authgate/internal/platform/middleware"
	requestutil "github.com/pvbalyuk/authgate/internal/platform/request"
	"github.com/pvbalyuk/authgate/internal/platform/respond"
	"github.com/pvbalyuk/authgate/internal/platform/sec"
	"github.com/pvbalyuk/authgate/internal/platform/validate"
	"github.com/pvbalyuk/authgate/internal/users/identity"
	"github.com/pvbalyuk/authgate/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the account administration HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with account routes.
//
// # Endpoints
//   - GET    /                   : Paginated account directory.
//   - GET    /{idOrEmail}        : One account by id or email.
//   - PATCH  /{id}               : Profile update (self or admin).
//   - DELETE /{id}               : Account deletion (self or admin).
//   - PUT    /{id}/roles/{role}  : Grant a role (admin only).
//   - DELETE /{id}/roles/{role}  : Revoke a role (admin only).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", handler.list)
		r.Get("/{idOrEmail}", handler.get)
		r.Patch("/{id}", handler.update)
		r.Delete("/{id}", handler.remove)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Put("/{id}/roles/{role}", handler.grantRole)
		r.Delete("/{id}/roles/{role}", handler.revokeRole)
	})

	return router
}

// # Request Payloads

type updateRequest struct {
	Email *string `json:"email"`
}

// # Handlers

/*
List returns one page of the account directory.

GET /api/v1/users?page=1&limit=20

Response:
  - 200: []User + pagination metadata
  - 401: ErrUnauthorized: Not authenticated
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.accountService.List(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get returns one account by id or email.

GET /api/v1/users/{idOrEmail}

Response:
  - 200: User: Account profile with roles
  - 404: ErrNotFound: No matching account
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	key := requestutil.Param(request, "idOrEmail")
	if key == "" {
		respond.Error(writer, request, validate.RequiredError("idOrEmail", "This field is required"))
		return
	}

	user, err := handler.accountService.Get(request.Context(), key)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Update applies a partial profile update.

PATCH /api/v1/users/{id}

Description: Callers may update their own account; administrators may update
anyone. Absent fields are left unchanged.

Request:
  - Body: updateRequest (Email, optional)

Response:
  - 200: User: Updated account
  - 403: ErrForbidden: Not the owner and not an admin
  - 409: ErrConflict: Email already taken
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")
	if err := requireSelfOrAdmin(request, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.UUID("id", id)
	if input.Email != nil {
		validator.Required(identity.FieldEmail, *input.Email).
			Email(identity.FieldEmail, *input.Email)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Update(request.Context(), id, UpdateInput{Email: input.Email})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Remove permanently deletes an account.

DELETE /api/v1/users/{id}

Description: Callers may delete their own account; administrators may delete
anyone. Roles and refresh tokens are removed with it.

Response:
  - 204: No Content: Account deleted
  - 403: ErrForbidden: Not the owner and not an admin
  - 404: ErrNotFound: No matching account
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")
	if err := requireSelfOrAdmin(request, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GrantRole adds a role to an account's set.

PUT /api/v1/users/{id}/roles/{role}

Response:
  - 200: User: Account with the updated role set
  - 400: ErrValidation: Unknown role name
  - 403: ErrForbidden: Caller is not an admin
  - 409: ErrConflict: Role already held
*/
func (handler *Handler) grantRole(writer http.ResponseWriter, request *http.Request) {
	id, role, err := roleParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GrantRole(request.Context(), id, role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
RevokeRole removes a role from an account's set.

DELETE /api/v1/users/{id}/roles/{role}

Response:
  - 200: User: Account with the updated role set
  - 400: ErrValidation: Unknown role name
  - 403: ErrForbidden: Caller is not an admin
  - 409: ErrConflict: Role not held
*/
func (handler *Handler) revokeRole(writer http.ResponseWriter, request *http.Request) {
	id, role, err := roleParams(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.RevokeRole(request.Context(), id, role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Guards & Parsing

// requireSelfOrAdmin allows the operation when the authenticated caller IS
// the target account or holds the ADMIN role. The decision is made purely
// from verified token claims.
func requireSelfOrAdmin(request *http.Request, targetID string) error {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return err
	}

	if claims.UserID == targetID || claims.RoleSet().Has(sec.RoleAdmin) {
		return nil
	}

	return apperr.Forbidden("You can only manage your own account")
}

// roleParams extracts and validates the {id} and {role} URL parameters.
func roleParams(request *http.Request) (string, sec.Role, error) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	validator.UUID("id", id)
	if err := validator.Err(); err != nil {
		return "", "", err
	}

	role, err := sec.ParseRole(requestutil.Param(request, "role"))
	if err != nil {
		return "", "", validate.RequiredError(identity.FieldRole,
			"Must be one of: USER, ADMIN")
	}

	return id, role, nil
}
