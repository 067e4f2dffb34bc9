package users

import (
	"context"

	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/domain"
)

type UserDatabaseRepo interface {
	// GetUser returns the user with the given identifier.
	GetUser(ctx context.Context, id domain.UserIdentifier) (*domain.User, error)
	// GetUserByEmail returns the user with the given email address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetTenantUsers returns all users of the given tenant.
	GetTenantUsers(ctx context.Context, tenant domain.TenantIdentifier) ([]domain.User, error)
	// SaveUser updates the user with the given identifier.
	// If no user with the given identifier exists, a new user is created.
	SaveUser(ctx context.Context, id domain.UserIdentifier, updateFunc func(u *domain.User) (*domain.User, error)) error
	// DeleteUser deletes the user with the given identifier.
	DeleteUser(ctx context.Context, id domain.UserIdentifier) error
}

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
}

// AuditRecorder reports significant user management actions to the audit log.
type AuditRecorder interface {
	RecordUserLifecycle(ctx context.Context, actionType domain.AuditActionType, event audit.UserLifecycleEvent)
	RecordPermissionChange(ctx context.Context, event audit.PermissionChangeEvent)
	RecordRoleChange(ctx context.Context, event audit.RoleChangeEvent)
	RecordBulkOperation(ctx context.Context, event audit.BulkOperationEvent)
}
