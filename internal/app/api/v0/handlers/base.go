package handlers

import (
	"context"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/opsboard/admin-portal/internal/app/api/core"
)

type Handler interface {
	// GetName returns the name of the handler.
	GetName() string
	// RegisterRoutes registers the routes for the handler.
	RegisterRoutes(g *routegroup.Bundle)
}

type SessionMiddleware interface {
	Session

	// LoadAndSave is a middleware that loads the session data for the given request and
	// saves it after the request is finished.
	LoadAndSave(next http.Handler) http.Handler
}

func NewRestApi(
	session SessionMiddleware,
	handlers ...Handler,
) core.ApiEndpointSetupFunc {
	return func() (core.ApiVersion, core.GroupSetupFn) {
		return "v0", func(group *routegroup.Bundle) {
			group.Use(session.LoadAndSave)

			for _, h := range handlers {
				h.RegisterRoutes(group)
			}
		}
	}
}

// region handler-interfaces

type Authenticator interface {
	// LoggedIn checks if a user is logged in. If scopes are given, they are validated as well.
	LoggedIn(scopes ...Scope) func(next http.Handler) http.Handler
	// InfoOnly only adds user info to the request context. No login check is performed.
	InfoOnly() func(next http.Handler) http.Handler
}

type Session interface {
	// SetData sets the session data for the given context.
	SetData(ctx context.Context, val SessionData)
	// GetData returns the session data for the given context. If no data is found, the
	// default session data is returned.
	GetData(ctx context.Context) SessionData
	// DestroyData destroys the session data for the given context.
	DestroyData(ctx context.Context)
}

type Validator interface {
	// Struct validates the given struct.
	Struct(s interface{}) error
}

// endregion handler-interfaces
