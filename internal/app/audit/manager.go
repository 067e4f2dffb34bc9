package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

// Manager answers filtered queries, aggregations and exports over the persisted audit
// log and enforces the retention policy. Unlike recording, all manager operations
// propagate their errors to the caller.
type Manager struct {
	cfg *config.Config

	db      ManagerDatabaseRepo
	metrics Metrics
}

func NewAuditManager(cfg *config.Config, db ManagerDatabaseRepo, metrics Metrics) (*Manager, error) {
	m := &Manager{
		cfg: cfg,

		db:      db,
		metrics: metrics,
	}

	return m, nil
}

// StartBackgroundJobs starts the scheduled retention sweep.
// This method is non-blocking, the jobs are started in background goroutines.
func (m *Manager) StartBackgroundJobs(ctx context.Context) {
	go m.runRetentionSweep(ctx)
}

// QueryLogs returns the audit entries that match the given filter, newest first.
// Only admin users can query audit logs, and only within their own tenant.
func (m *Manager) QueryLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditEntry, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateTenantAccessRights(ctx, filter.Tenant); err != nil {
		return nil, err
	}
	filter.Normalize()

	entries, err := m.db.FindAuditEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}

	return entries, nil
}

// GetStatistics returns the number of audit entries per action type for the given
// tenant. Both date bounds are optional and inclusive.
func (m *Manager) GetStatistics(
	ctx context.Context,
	tenant domain.TenantIdentifier,
	start, end *time.Time,
) (map[domain.AuditActionType]int64, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}
	if tenant == "" {
		return nil, fmt.Errorf("missing tenant identifier: %w", domain.ErrInvalidData)
	}
	if err := domain.ValidateTenantAccessRights(ctx, tenant); err != nil {
		return nil, err
	}

	stats, err := m.db.CountAuditEntriesByAction(ctx, tenant, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit statistics: %w", err)
	}

	return stats, nil
}

// DeleteOldLogs removes all audit entries of the tenant that are strictly older than
// now minus retentionDays calendar days. It returns the number of deleted entries.
// A retentionDays value of 0 or less falls back to the 90 day default.
func (m *Manager) DeleteOldLogs(
	ctx context.Context,
	tenant domain.TenantIdentifier,
	retentionDays int,
) (int64, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return 0, err
	}
	if tenant == "" {
		return 0, fmt.Errorf("missing tenant identifier: %w", domain.ErrInvalidData)
	}
	if err := domain.ValidateTenantAccessRights(ctx, tenant); err != nil {
		return 0, err
	}

	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	deleted, err := m.db.DeleteAuditEntriesBefore(ctx, tenant, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}

	if deleted > 0 && m.metrics != nil {
		m.metrics.AuditEntriesDeleted(tenant, deleted)
	}

	return deleted, nil
}

// ExportLogs serializes the matching audit entries to CSV, see entriesToCsv for the
// format. At most ExportMaxRows entries are exported, a larger caller-supplied limit
// is ignored.
func (m *Manager) ExportLogs(ctx context.Context, filter domain.AuditLogFilter) (string, error) {
	filter.Normalize()
	filter.Limit = ExportMaxRows

	entries, err := m.QueryLogs(ctx, filter)
	if err != nil {
		return "", err
	}

	return entriesToCsv(entries), nil
}

// DefaultRetentionDays is the fallback maximum age of audit entries.
const DefaultRetentionDays = 90

func (m *Manager) runRetentionSweep(ctx context.Context) {
	retentionDays := m.cfg.Audit.RetentionDays
	interval := m.cfg.Audit.SweepInterval
	if retentionDays <= 0 || interval <= 0 {
		slog.Debug("scheduled audit retention sweep is disabled")
		return
	}

	// background jobs run with the internal admin identity
	ctx = domain.SetUserInfo(ctx, domain.SystemAdminContextUserInfo())

	running := true
	for running {
		select {
		case <-ctx.Done():
			running = false
			continue
		case <-time.After(interval):
			// select blocks until one of the cases match, the update is triggered at most
			// once per interval
		}

		tenants, err := m.db.GetAuditTenants(ctx)
		if err != nil {
			slog.Error("failed to load tenants for audit retention sweep", "error", err)
			continue
		}

		for _, tenant := range tenants {
			deleted, err := m.DeleteOldLogs(ctx, tenant, retentionDays)
			if err != nil {
				slog.Error("audit retention sweep failed",
					"tenant", tenant,
					"error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("audit retention sweep removed old entries",
					"tenant", tenant,
					"deleted", deleted,
					"retentionDays", retentionDays)
			}
		}
	}

	slog.Debug("audit retention sweep stopped")
}
