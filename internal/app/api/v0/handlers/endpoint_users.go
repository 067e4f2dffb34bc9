package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/opsboard/admin-portal/internal/app/api/core/request"
	"github.com/opsboard/admin-portal/internal/app/api/core/respond"
	"github.com/opsboard/admin-portal/internal/app/api/v0/model"
	"github.com/opsboard/admin-portal/internal/domain"
)

type UserService interface {
	// GetUser returns a single user.
	GetUser(ctx context.Context, id domain.UserIdentifier) (*domain.User, error)
	// GetTenantUsers returns all users of the given tenant.
	GetTenantUsers(ctx context.Context, tenant domain.TenantIdentifier) ([]domain.User, error)
	// CreateUser creates a new user.
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	// UpdateUser updates the profile of an existing user.
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	// DeleteUser deletes the user with the given identifier.
	DeleteUser(ctx context.Context, id domain.UserIdentifier) error
	// ChangeUserRole assigns a new role to the user.
	ChangeUserRole(ctx context.Context, id domain.UserIdentifier, role domain.UserRole) (*domain.User, error)
	// SetUserPermissions replaces the permission list of the user.
	SetUserPermissions(ctx context.Context, id domain.UserIdentifier, permissions []string) (*domain.User, error)
	// BulkDisableUsers disables the given users of the tenant.
	BulkDisableUsers(ctx context.Context, tenant domain.TenantIdentifier, ids []domain.UserIdentifier,
		reason string) (int, error)
}

type UserEndpoint struct {
	users         UserService
	authenticator Authenticator
	validator     Validator
}

func NewUserEndpoint(users UserService, authenticator Authenticator, validator Validator) UserEndpoint {
	return UserEndpoint{
		users:         users,
		authenticator: authenticator,
		validator:     validator,
	}
}

func (e UserEndpoint) GetName() string {
	return "UserEndpoint"
}

func (e UserEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/user")

	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("GET /all", e.handleAllGet())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /new", e.handleCreatePost())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /bulk-disable", e.handleBulkDisablePost())
	apiGroup.With(e.authenticator.LoggedIn()).HandleFunc("GET /{id}", e.handleSingleGet())
	apiGroup.With(e.authenticator.LoggedIn()).HandleFunc("PUT /{id}", e.handleUpdatePut())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("DELETE /{id}", e.handleDelete())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("PUT /{id}/role", e.handleRolePut())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("PUT /{id}/permissions", e.handlePermissionsPut())
}

// handleAllGet returns all users of the current tenant.
func (e UserEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := domain.GetUserInfo(r.Context()).Tenant

		users, err := e.users.GetTenantUsers(r.Context(), tenant)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUsers(users))
	}
}

// handleSingleGet returns a single user.
func (e UserEndpoint) handleSingleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := request.Path(r, "id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "missing user id"})
			return
		}

		user, err := e.users.GetUser(r.Context(), domain.UserIdentifier(id))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUser(user))
	}
}

// handleCreatePost creates a new user in the current tenant.
func (e UserEndpoint) handleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.User
		if err := request.BodyJson(r, &req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		newUser := model.NewDomainUser(&req)
		if newUser.Tenant == "" {
			newUser.Tenant = domain.GetUserInfo(r.Context()).Tenant
		}

		user, err := e.users.CreateUser(r.Context(), newUser)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewUser(user))
	}
}

// handleUpdatePut updates the profile fields of a user.
func (e UserEndpoint) handleUpdatePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := request.Path(r, "id")

		var req model.User
		if err := request.BodyJson(r, &req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if req.Identifier != id {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "user id mismatch"})
			return
		}

		user, err := e.users.UpdateUser(r.Context(), model.NewDomainUser(&req))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUser(user))
	}
}

// handleDelete deletes a user.
func (e UserEndpoint) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := request.Path(r, "id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "missing user id"})
			return
		}

		if err := e.users.DeleteUser(r.Context(), domain.UserIdentifier(id)); err != nil {
			respondError(w, err)
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}

// handleRolePut assigns a new role to a user.
func (e UserEndpoint) handleRolePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := request.Path(r, "id")

		var req model.UserRoleRequest
		if err := request.BodyJson(r, &req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validator.Struct(req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		user, err := e.users.ChangeUserRole(r.Context(), domain.UserIdentifier(id), domain.UserRole(req.Role))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUser(user))
	}
}

// handlePermissionsPut replaces the permission list of a user.
func (e UserEndpoint) handlePermissionsPut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := request.Path(r, "id")

		var req model.UserPermissionsRequest
		if err := request.BodyJson(r, &req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validator.Struct(req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		user, err := e.users.SetUserPermissions(r.Context(), domain.UserIdentifier(id), req.Permissions)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUser(user))
	}
}

// handleBulkDisablePost disables several users of the current tenant at once.
func (e UserEndpoint) handleBulkDisablePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.BulkDisableRequest
		if err := request.BodyJson(r, &req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validator.Struct(req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		ids := make([]domain.UserIdentifier, len(req.Users))
		for i, id := range req.Users {
			ids[i] = domain.UserIdentifier(id)
		}

		tenant := domain.GetUserInfo(r.Context()).Tenant
		disabled, err := e.users.BulkDisableUsers(r.Context(), tenant, ids, req.Reason)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.BulkDisableResponse{Disabled: disabled})
	}
}

// respondError maps domain errors to HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrNoPermission):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidData), errors.Is(err, domain.ErrNotUnique):
		code = http.StatusBadRequest
	}

	respond.JSON(w, code, model.Error{Code: code, Message: err.Error()})
}
