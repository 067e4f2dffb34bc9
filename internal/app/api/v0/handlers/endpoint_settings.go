package handlers

import (
	"context"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/opsboard/admin-portal/internal/app/api/core/request"
	"github.com/opsboard/admin-portal/internal/app/api/core/respond"
	"github.com/opsboard/admin-portal/internal/app/api/v0/model"
	"github.com/opsboard/admin-portal/internal/domain"
)

type SettingsService interface {
	// GetSection returns the settings of the given section as a key/value map.
	GetSection(ctx context.Context, tenant domain.TenantIdentifier, section string) (map[string]string, error)
	// UpdateSection writes the given key/value pairs to the section.
	UpdateSection(ctx context.Context, tenant domain.TenantIdentifier, section string,
		values map[string]string) error
}

type SettingsEndpoint struct {
	settings      SettingsService
	authenticator Authenticator
	validator     Validator
}

func NewSettingsEndpoint(settings SettingsService, authenticator Authenticator, validator Validator) SettingsEndpoint {
	return SettingsEndpoint{
		settings:      settings,
		authenticator: authenticator,
		validator:     validator,
	}
}

func (e SettingsEndpoint) GetName() string {
	return "SettingsEndpoint"
}

func (e SettingsEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/settings")

	apiGroup.With(e.authenticator.LoggedIn()).HandleFunc("GET /{section}", e.handleSectionGet())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("PUT /{section}", e.handleSectionPut())
}

// handleSectionGet returns the settings of one section for the current tenant.
func (e SettingsEndpoint) handleSectionGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section := request.Path(r, "section")
		tenant := domain.GetUserInfo(r.Context()).Tenant

		values, err := e.settings.GetSection(r.Context(), tenant, section)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.SettingsSection{Section: section, Values: values})
	}
}

// handleSectionPut updates the settings of one section for the current tenant.
func (e SettingsEndpoint) handleSectionPut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section := request.Path(r, "section")

		var req model.SettingsUpdateRequest
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

		tenant := domain.GetUserInfo(r.Context()).Tenant
		if err := e.settings.UpdateSection(r.Context(), tenant, section, req.Values); err != nil {
			respondError(w, err)
			return
		}

		values, err := e.settings.GetSection(r.Context(), tenant, section)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.SettingsSection{Section: section, Values: values})
	}
}
