package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsboard/admin-portal/internal/app"
	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

// RequestInfo carries the provenance of the request that triggered an authentication
// attempt. It ends up in the audit trail.
type RequestInfo struct {
	IpAddress string
	UserAgent string
}

// Authenticator handles password authentication against the user database.
type Authenticator struct {
	cfg *config.Config
	bus EventBus

	users UserManager
}

func NewAuthenticator(cfg *config.Config, bus EventBus, users UserManager) (*Authenticator, error) {
	a := &Authenticator{
		cfg: cfg,
		bus: bus,

		users: users,
	}

	return a, nil
}

// IsUserValid checks if a user exists and is not disabled.
func (a *Authenticator) IsUserValid(ctx context.Context, id domain.UserIdentifier) bool {
	ctx = domain.SetUserInfo(ctx, domain.SystemAdminContextUserInfo()) // switch to admin user context
	user, err := a.users.GetUser(ctx, id)
	if err != nil {
		return false
	}

	if user.IsDisabled() {
		return false
	}

	return true
}

// PlainLogin performs a password authentication for a user. The username and password
// are trimmed before usage. If the login is successful, the user is returned, otherwise
// an error. Both outcomes are published to the message bus for the audit trail.
// Failed attempts for unknown usernames cannot be attributed to a tenant and therefore
// do not produce an audit entry.
func (a *Authenticator) PlainLogin(ctx context.Context, username, password string, req RequestInfo) (
	*domain.User, error,
) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, fmt.Errorf("missing username or password")
	}

	user, err := a.passwordAuthentication(ctx, domain.UserIdentifier(username), password)
	if err != nil {
		a.bus.Publish(app.TopicAuditLoginFailed, domain.AuditEventWrapper[audit.AuthEvent]{
			Ctx:    ctx,
			Source: "plain",
			Event: audit.AuthEvent{
				Tenant:    a.tenantOf(ctx, domain.UserIdentifier(username)),
				Username:  username,
				Error:     err.Error(),
				IpAddress: req.IpAddress,
				UserAgent: req.UserAgent,
			},
		})
		return nil, fmt.Errorf("login failed: %w", err)
	}

	a.bus.Publish(app.TopicAuthLogin, user.Identifier)
	a.bus.Publish(app.TopicAuditLoginSuccess, domain.AuditEventWrapper[audit.AuthEvent]{
		Ctx:    ctx,
		Source: "plain",
		Event: audit.AuthEvent{
			Tenant:    user.Tenant,
			Username:  string(user.Identifier),
			IpAddress: req.IpAddress,
			UserAgent: req.UserAgent,
		},
	})

	return user, nil
}

// Logout reports the end of a user session.
func (a *Authenticator) Logout(ctx context.Context, req RequestInfo) error {
	currentUser := domain.GetUserInfo(ctx)

	a.bus.Publish(app.TopicAuthLogout, currentUser.Id)
	a.bus.Publish(app.TopicAuditLogout, domain.AuditEventWrapper[audit.AuthEvent]{
		Ctx:    ctx,
		Source: "session",
		Event: audit.AuthEvent{
			Tenant:    currentUser.Tenant,
			Username:  string(currentUser.Id),
			IpAddress: req.IpAddress,
			UserAgent: req.UserAgent,
		},
	})

	return nil
}

func (a *Authenticator) passwordAuthentication(
	ctx context.Context,
	identifier domain.UserIdentifier,
	password string,
) (*domain.User, error) {
	ctx = domain.SetUserInfo(ctx,
		domain.SystemAdminContextUserInfo()) // switch to admin user context to check if user exists

	existingUser, err := a.users.GetUser(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if existingUser.IsDisabled() {
		return nil, fmt.Errorf("user is disabled")
	}

	if err := existingUser.CheckPassword(password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return existingUser, nil
}

func (a *Authenticator) tenantOf(ctx context.Context, id domain.UserIdentifier) domain.TenantIdentifier {
	ctx = domain.SetUserInfo(ctx, domain.SystemAdminContextUserInfo())
	user, err := a.users.GetUser(ctx, id)
	if err != nil {
		return ""
	}

	return user.Tenant
}
