package handlers

import (
	"context"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/opsboard/admin-portal/internal/app/api/core/request"
	"github.com/opsboard/admin-portal/internal/app/api/core/respond"
	"github.com/opsboard/admin-portal/internal/app/api/v0/model"
	"github.com/opsboard/admin-portal/internal/app/auth"
	"github.com/opsboard/admin-portal/internal/domain"
)

type AuthenticationService interface {
	// PlainLogin performs a password authentication for a user.
	PlainLogin(ctx context.Context, username, password string, req auth.RequestInfo) (*domain.User, error)
	// Logout reports the end of a user session.
	Logout(ctx context.Context, req auth.RequestInfo) error
}

type AuthEndpoint struct {
	authService   AuthenticationService
	session       Session
	authenticator Authenticator
	validator     Validator
}

func NewAuthEndpoint(
	authService AuthenticationService,
	authenticator Authenticator,
	session Session,
	validator Validator,
) AuthEndpoint {
	return AuthEndpoint{
		authService:   authService,
		session:       session,
		authenticator: authenticator,
		validator:     validator,
	}
}

func (e AuthEndpoint) GetName() string {
	return "AuthEndpoint"
}

func (e AuthEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/auth")

	apiGroup.HandleFunc("POST /login", e.handleLoginPost())
	apiGroup.With(e.authenticator.InfoOnly()).HandleFunc("GET /session", e.handleSessionInfoGet())
	apiGroup.With(e.authenticator.LoggedIn()).HandleFunc("POST /logout", e.handleLogoutPost())
}

// handleLoginPost authenticates a user with username and password and starts a new
// session on success.
func (e AuthEndpoint) handleLoginPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
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

		user, err := e.authService.PlainLogin(r.Context(), req.Username, req.Password, auth.RequestInfo{
			IpAddress: request.ClientIp(r),
			UserAgent: request.UserAgent(r),
		})
		if err != nil {
			respond.JSON(w, http.StatusUnauthorized,
				model.Error{Code: http.StatusUnauthorized, Message: "login failed"})
			return
		}

		e.session.SetData(r.Context(), SessionData{
			LoggedIn:       true,
			IsAdmin:        user.IsAdmin(),
			UserIdentifier: string(user.Identifier),
			Tenant:         string(user.Tenant),
			Firstname:      user.Firstname,
			Lastname:       user.Lastname,
			Email:          user.Email,
		})

		respond.JSON(w, http.StatusOK, e.sessionInfo(r.Context()))
	}
}

// handleSessionInfoGet returns the state of the current session.
func (e AuthEndpoint) handleSessionInfoGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, e.sessionInfo(r.Context()))
	}
}

// handleLogoutPost ends the current session.
func (e AuthEndpoint) handleLogoutPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = e.authService.Logout(r.Context(), auth.RequestInfo{
			IpAddress: request.ClientIp(r),
			UserAgent: request.UserAgent(r),
		})

		e.session.DestroyData(r.Context())

		respond.Status(w, http.StatusNoContent)
	}
}

func (e AuthEndpoint) sessionInfo(ctx context.Context) model.SessionInfo {
	session := e.session.GetData(ctx)
	if !session.LoggedIn {
		return model.SessionInfo{LoggedIn: false}
	}

	return model.SessionInfo{
		LoggedIn:       true,
		IsAdmin:        session.IsAdmin,
		UserIdentifier: &session.UserIdentifier,
		Tenant:         &session.Tenant,
		UserFirstname:  &session.Firstname,
		UserLastname:   &session.Lastname,
		UserEmail:      &session.Email,
	}
}
