package audit

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/opsboard/admin-portal/internal/domain"
)

// mockAuditDb is an in-memory stand-in for the audit table. It implements both the
// recorder and the manager repository interfaces.
type mockAuditDb struct {
	entries    []domain.AuditEntry
	failCreate bool

	lastFilter domain.AuditLogFilter
	lastCtx    context.Context
}

func (m *mockAuditDb) CreateAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	m.lastCtx = ctx
	if m.failCreate {
		return errors.New("storage unavailable")
	}

	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditDb) FindAuditEntries(_ context.Context, filter domain.AuditLogFilter) (
	[]domain.AuditEntry, error,
) {
	m.lastFilter = filter

	var matched []domain.AuditEntry
	for _, entry := range m.entries {
		if m.matches(entry, filter) {
			matched = append(matched, entry)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func (m *mockAuditDb) CountAuditEntriesByAction(
	_ context.Context,
	tenant domain.TenantIdentifier,
	start, end *time.Time,
) (map[domain.AuditActionType]int64, error) {
	filter := domain.AuditLogFilter{Tenant: tenant, StartDate: start, EndDate: end}

	counts := make(map[domain.AuditActionType]int64)
	for _, entry := range m.entries {
		if m.matches(entry, filter) {
			counts[entry.ActionType]++
		}
	}

	return counts, nil
}

func (m *mockAuditDb) DeleteAuditEntriesBefore(
	_ context.Context,
	tenant domain.TenantIdentifier,
	cutoff time.Time,
) (int64, error) {
	var kept []domain.AuditEntry
	var deleted int64
	for _, entry := range m.entries {
		if entry.Tenant == tenant && entry.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}

	m.entries = kept
	return deleted, nil
}

func (m *mockAuditDb) GetAuditTenants(_ context.Context) ([]domain.TenantIdentifier, error) {
	var tenants []domain.TenantIdentifier
	for _, entry := range m.entries {
		if !slices.Contains(tenants, entry.Tenant) {
			tenants = append(tenants, entry.Tenant)
		}
	}

	return tenants, nil
}

func (m *mockAuditDb) matches(entry domain.AuditEntry, filter domain.AuditLogFilter) bool {
	if entry.Tenant != filter.Tenant {
		return false
	}
	if filter.UserId != "" && entry.UserId != filter.UserId {
		return false
	}
	if len(filter.ActionTypes) > 0 && !slices.Contains(filter.ActionTypes, entry.ActionType) {
		return false
	}
	if filter.TargetUserId != "" && entry.TargetUserId != filter.TargetUserId {
		return false
	}
	if len(filter.Severities) > 0 && !slices.Contains(filter.Severities, entry.Severity) {
		return false
	}
	if filter.StartDate != nil && entry.CreatedAt.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && entry.CreatedAt.After(*filter.EndDate) {
		return false
	}

	return true
}

type publishedMessage struct {
	topic string
	args  []any
}

type mockBus struct {
	published []publishedMessage
	handlers  map[string]any
}

func newMockBus() *mockBus {
	return &mockBus{handlers: make(map[string]any)}
}

func (m *mockBus) Publish(topic string, args ...any) {
	m.published = append(m.published, publishedMessage{topic: topic, args: args})
}

func (m *mockBus) Subscribe(topic string, fn interface{}) error {
	m.handlers[topic] = fn
	return nil
}

type mockMetrics struct {
	recorded int
	dropped  int
	deleted  map[domain.TenantIdentifier]int64
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{deleted: make(map[domain.TenantIdentifier]int64)}
}

func (m *mockMetrics) AuditEventRecorded(*domain.AuditEntry) {
	m.recorded++
}

func (m *mockMetrics) AuditEventDropped(*domain.AuditEntry) {
	m.dropped++
}

func (m *mockMetrics) AuditEntriesDeleted(tenant domain.TenantIdentifier, count int64) {
	m.deleted[tenant] += count
}

func adminContext(tenant domain.TenantIdentifier) context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{
		Id:      "admin@example.com",
		Tenant:  tenant,
		IsAdmin: true,
	})
}

func memberContext(tenant domain.TenantIdentifier) context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{
		Id:      "member@example.com",
		Tenant:  tenant,
		IsAdmin: false,
	})
}
