package handlers

import (
	"net/http"

	"github.com/opsboard/admin-portal/internal/app/api/core/respond"
	"github.com/opsboard/admin-portal/internal/app/api/v0/model"
	"github.com/opsboard/admin-portal/internal/domain"
)

type Scope string

const (
	ScopeAdmin Scope = "ADMIN"
)

// AuthenticationMiddleware guards routes based on the session state and populates the
// request context with the user info of the current session.
type AuthenticationMiddleware struct {
	session Session
}

func NewAuthenticationMiddleware(session Session) AuthenticationMiddleware {
	return AuthenticationMiddleware{
		session: session,
	}
}

// LoggedIn checks if a user is logged in. If scopes are given, they are validated as well.
func (m AuthenticationMiddleware) LoggedIn(scopes ...Scope) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := m.session.GetData(r.Context())

			if !session.LoggedIn {
				respond.JSON(w, http.StatusUnauthorized,
					model.Error{Code: http.StatusUnauthorized, Message: "not logged in"})
				return
			}

			if !userHasScopes(session, scopes...) {
				respond.JSON(w, http.StatusForbidden,
					model.Error{Code: http.StatusForbidden, Message: "not enough permissions"})
				return
			}

			ctx := domain.SetUserInfo(r.Context(), &domain.ContextUserInfo{
				Id:      domain.UserIdentifier(session.UserIdentifier),
				Tenant:  domain.TenantIdentifier(session.Tenant),
				IsAdmin: session.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InfoOnly only adds user info to the request context. No login check is performed.
func (m AuthenticationMiddleware) InfoOnly() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := m.session.GetData(r.Context())

			if !session.LoggedIn {
				next.ServeHTTP(w, r)
				return
			}

			ctx := domain.SetUserInfo(r.Context(), &domain.ContextUserInfo{
				Id:      domain.UserIdentifier(session.UserIdentifier),
				Tenant:  domain.TenantIdentifier(session.Tenant),
				IsAdmin: session.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userHasScopes(session SessionData, scopes ...Scope) bool {
	for _, scope := range scopes {
		if scope == ScopeAdmin && !session.IsAdmin {
			return false
		}
	}

	return true
}
