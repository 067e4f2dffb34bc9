package handlers

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/opsboard/admin-portal/internal/config"
)

func init() {
	gob.Register(SessionData{})
}

const sessionDataKey = "portalData"

type SessionData struct {
	LoggedIn bool
	IsAdmin  bool

	UserIdentifier string
	Tenant         string

	Firstname string
	Lastname  string
	Email     string
}

// SessionWrapper wraps the scs session manager and stores the portal session data
// under a fixed key.
type SessionWrapper struct {
	*scs.SessionManager
}

func NewSessionWrapper(cfg *config.Config) *SessionWrapper {
	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Cookie.Name = cfg.Web.SessionIdentifier
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Web.CertFile != "" && cfg.Web.KeyFile != ""

	return &SessionWrapper{
		SessionManager: sessionManager,
	}
}

// SetData sets the session data for the given context.
func (s *SessionWrapper) SetData(ctx context.Context, val SessionData) {
	s.SessionManager.Put(ctx, sessionDataKey, val)
}

// GetData returns the session data for the given context. If no data is found, the
// default session data is returned.
func (s *SessionWrapper) GetData(ctx context.Context) SessionData {
	sessionData, ok := s.SessionManager.Get(ctx, sessionDataKey).(SessionData)
	if !ok {
		return SessionData{} // logged out
	}

	return sessionData
}

// DestroyData destroys the session data for the given context.
func (s *SessionWrapper) DestroyData(ctx context.Context) {
	_ = s.SessionManager.Destroy(ctx)
}
