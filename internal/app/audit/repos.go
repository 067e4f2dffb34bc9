package audit

import (
	"context"
	"time"

	"github.com/opsboard/admin-portal/internal/domain"
)

type DatabaseRepo interface {
	// CreateAuditEntry appends the given audit entry. Entries are insert-only.
	CreateAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
}

type ManagerDatabaseRepo interface {
	// FindAuditEntries retrieves all audit entries that match the given filter.
	// The entries are ordered by timestamp, with the newest entries first.
	FindAuditEntries(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditEntry, error)
	// CountAuditEntriesByAction returns the number of matching audit entries per action type.
	CountAuditEntriesByAction(ctx context.Context, tenant domain.TenantIdentifier, start, end *time.Time) (
		map[domain.AuditActionType]int64, error)
	// DeleteAuditEntriesBefore deletes all entries of the tenant that are strictly older than the cutoff.
	DeleteAuditEntriesBefore(ctx context.Context, tenant domain.TenantIdentifier, cutoff time.Time) (int64, error)
	// GetAuditTenants returns the distinct tenants that have at least one audit entry.
	GetAuditTenants(ctx context.Context) ([]domain.TenantIdentifier, error)
}

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
	// Subscribe subscribes to the given topic.
	Subscribe(topic string, fn interface{}) error
}

type Metrics interface {
	// AuditEventRecorded counts a successfully persisted audit event.
	AuditEventRecorded(entry *domain.AuditEntry)
	// AuditEventDropped counts an audit event that was lost due to a storage failure.
	AuditEventDropped(entry *domain.AuditEntry)
	// AuditEntriesDeleted counts entries removed by a retention sweep.
	AuditEntriesDeleted(tenant domain.TenantIdentifier, count int64)
}

type Mailer interface {
	// Send sends a plain text mail to the given recipients.
	Send(ctx context.Context, subject, body string, to []string) error
}
