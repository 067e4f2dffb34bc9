package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type AuditSeverityLevel string

const AuditSeverityLevelInfo AuditSeverityLevel = "info"
const AuditSeverityLevelWarning AuditSeverityLevel = "warning"
const AuditSeverityLevelCritical AuditSeverityLevel = "critical"

// AuditActionType is the closed set of event categories that can be recorded.
// New categories are added here, callers must not invent their own values.
type AuditActionType string

const (
	AuditUserCreated AuditActionType = "user_created"
	AuditUserUpdated AuditActionType = "user_updated"
	AuditUserDeleted AuditActionType = "user_deleted"

	AuditPermissionGranted AuditActionType = "permission_granted"
	AuditPermissionRevoked AuditActionType = "permission_revoked"

	AuditRoleChanged AuditActionType = "role_changed"

	AuditSettingsChanged AuditActionType = "settings_changed"

	AuditBulkOperationStarted   AuditActionType = "bulk_operation_started"
	AuditBulkOperationCompleted AuditActionType = "bulk_operation_completed"
	AuditBulkOperationFailed    AuditActionType = "bulk_operation_failed"

	AuditLoginSucceeded AuditActionType = "login_succeeded"
	AuditLoginFailed    AuditActionType = "login_failed"
	AuditLogout         AuditActionType = "logout"
)

// AuditBulkOperationStatus describes the phase of a bulk operation.
type AuditBulkOperationStatus string

const (
	AuditBulkStatusStarted   AuditBulkOperationStatus = "STARTED"
	AuditBulkStatusCompleted AuditBulkOperationStatus = "COMPLETED"
	AuditBulkStatusFailed    AuditBulkOperationStatus = "FAILED"
)

// ActionType maps the bulk operation phase to its audit action type.
func (s AuditBulkOperationStatus) ActionType() AuditActionType {
	switch s {
	case AuditBulkStatusCompleted:
		return AuditBulkOperationCompleted
	case AuditBulkStatusFailed:
		return AuditBulkOperationFailed
	default:
		return AuditBulkOperationStarted
	}
}

// Severity maps the bulk operation phase to its severity. Failed phases are warnings.
func (s AuditBulkOperationStatus) Severity() AuditSeverityLevel {
	if s == AuditBulkStatusFailed {
		return AuditSeverityLevelWarning
	}
	return AuditSeverityLevelInfo
}

// AuditSeverityForRole returns the severity for a role change that elevates a user
// to the given role. Elevation to an administrative role is always critical.
func AuditSeverityForRole(role UserRole) AuditSeverityLevel {
	if role.IsAdminRole() {
		return AuditSeverityLevelCritical
	}
	return AuditSeverityLevelInfo
}

// JSONPayload stores an arbitrary JSON-representable value as an opaque string.
// The database never interprets the payload. Malformed stored data degrades to a
// null payload when read back, it never aborts the surrounding query.
type JSONPayload struct {
	Data any
}

func NewJSONPayload(data any) JSONPayload {
	return JSONPayload{Data: data}
}

func (p JSONPayload) IsNull() bool {
	return p.Data == nil
}

func (JSONPayload) GormDataType() string {
	return "text"
}

func (p JSONPayload) Value() (driver.Value, error) {
	if p.Data == nil {
		return nil, nil
	}

	raw, err := json.Marshal(p.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	return string(raw), nil
}

func (p *JSONPayload) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		p.Data = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		p.Data = nil
		return nil
	}

	if len(raw) == 0 {
		p.Data = nil
		return nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		p.Data = nil // best-effort field, malformed data degrades to null
		return nil
	}

	p.Data = data
	return nil
}

// AuditEntry is a single immutable audit record. Entries are only ever created or
// bulk-deleted by the retention sweep, they are never updated.
type AuditEntry struct {
	UniqueId  uint64    `gorm:"primaryKey;autoIncrement:true;column:id"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_audit_created"`

	Tenant TenantIdentifier `gorm:"column:tenant_identifier;index:idx_audit_tenant"`
	UserId UserIdentifier   `gorm:"column:user_identifier;index:idx_audit_user"`

	ActionType AuditActionType    `gorm:"column:action_type;index:idx_audit_action"`
	Severity   AuditSeverityLevel `gorm:"column:severity;index:idx_audit_severity"`

	TargetUserId       string `gorm:"column:target_user_identifier"`
	TargetResourceId   string `gorm:"column:target_resource_identifier"`
	TargetResourceType string `gorm:"column:target_resource_type"`

	Description string `gorm:"column:description"`

	Changes  JSONPayload `gorm:"column:changes"`
	Metadata JSONPayload `gorm:"column:metadata"`

	IpAddress string `gorm:"column:ip_address"`
	UserAgent string `gorm:"column:user_agent"`
}

// Validate checks that the required fields of an entry are populated.
func (e *AuditEntry) Validate() error {
	if e.Tenant == "" {
		return fmt.Errorf("missing tenant identifier: %w", ErrInvalidData)
	}
	if e.UserId == "" {
		return fmt.Errorf("missing user identifier: %w", ErrInvalidData)
	}
	if e.ActionType == "" {
		return fmt.Errorf("missing action type: %w", ErrInvalidData)
	}

	return nil
}

// DefaultAuditQueryLimit is applied to audit queries that do not specify a limit.
const DefaultAuditQueryLimit = 100

// AuditLogFilter restricts an audit query to a single tenant and optional sub-criteria.
// Date bounds are inclusive on both ends.
type AuditLogFilter struct {
	Tenant TenantIdentifier

	UserId       UserIdentifier
	ActionTypes  []AuditActionType
	TargetUserId string
	Severities   []AuditSeverityLevel

	StartDate *time.Time
	EndDate   *time.Time

	Limit  int
	Offset int
}

// Validate ensures that the filter is scoped to a tenant. Queries without a tenant
// are rejected, cross-tenant reads must never be possible.
func (f *AuditLogFilter) Validate() error {
	if f.Tenant == "" {
		return fmt.Errorf("missing tenant identifier: %w", ErrInvalidData)
	}

	return nil
}

// Normalize applies the default limit and offset.
func (f *AuditLogFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultAuditQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// AuditEventWrapper carries a domain event together with its originating request
// context to the audit recorder.
type AuditEventWrapper[T any] struct {
	Ctx    context.Context
	Source string
	Event  T
}
