package audit

import (
	"github.com/opsboard/admin-portal/internal/domain"
)

// AuthEvent describes a login, logout or failed login attempt.
type AuthEvent struct {
	Tenant   domain.TenantIdentifier
	Username string
	Error    string

	IpAddress string
	UserAgent string
}

// PermissionChangeEvent describes permissions that were granted to or revoked from a user.
type PermissionChangeEvent struct {
	Tenant       domain.TenantIdentifier
	TargetUserId domain.UserIdentifier

	PermissionsAdded   []string
	PermissionsRemoved []string

	IpAddress string
	UserAgent string
}

// RoleChangeEvent describes a role assignment.
type RoleChangeEvent struct {
	Tenant       domain.TenantIdentifier
	TargetUserId domain.UserIdentifier

	OldRole domain.UserRole
	NewRole domain.UserRole

	IpAddress string
	UserAgent string
}

// SettingsChangeEvent describes a change to a tenant settings section.
type SettingsChangeEvent struct {
	Tenant  domain.TenantIdentifier
	Section string

	// OldValues and NewValues hold the changed keys with their values before and after.
	OldValues map[string]any
	NewValues map[string]any

	IpAddress string
	UserAgent string
}

// BulkOperationEvent describes a phase of a bulk operation.
type BulkOperationEvent struct {
	Tenant      domain.TenantIdentifier
	OperationId string
	Name        string
	Status      domain.AuditBulkOperationStatus

	AffectedCount int
	Error         string
}

// UserLifecycleEvent describes creation, update or deletion of a user account.
type UserLifecycleEvent struct {
	Tenant       domain.TenantIdentifier
	TargetUserId domain.UserIdentifier

	Changes map[string]any

	IpAddress string
	UserAgent string
}
