package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsboard/admin-portal/internal/app"
	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

// Recorder accepts structured event descriptions and durably persists them.
//
// Recording is fire-and-forget: a storage failure is reported to the log and the
// dropped-events counter, it is never surfaced to the caller. An audit trail gap is
// preferable to failing the primary business operation.
type Recorder struct {
	cfg *config.Config
	bus EventBus

	db      DatabaseRepo
	metrics Metrics
}

// NewAuditRecorder creates a new Recorder and connects it to the message bus.
func NewAuditRecorder(cfg *config.Config, bus EventBus, db DatabaseRepo, metrics Metrics) (*Recorder, error) {
	r := &Recorder{
		cfg: cfg,
		bus: bus,

		db:      db,
		metrics: metrics,
	}

	if err := r.connectToMessageBus(); err != nil {
		return nil, fmt.Errorf("failed to setup message bus: %w", err)
	}

	return r, nil
}

func (r *Recorder) connectToMessageBus() error {
	if !r.cfg.Audit.IncludeAuthEvents {
		return nil // nothing to do
	}

	if err := r.bus.Subscribe(app.TopicAuditLoginSuccess, r.handleAuthEvent(domain.AuditLoginSucceeded)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicAuditLoginSuccess, err)
	}
	if err := r.bus.Subscribe(app.TopicAuditLoginFailed, r.handleAuthEvent(domain.AuditLoginFailed)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicAuditLoginFailed, err)
	}
	if err := r.bus.Subscribe(app.TopicAuditLogout, r.handleAuthEvent(domain.AuditLogout)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicAuditLogout, err)
	}

	return nil
}

// RecordEvent persists the given entry. The timestamp is assigned here, caller-supplied
// values are overwritten. Storage failures are swallowed, see the Recorder contract.
func (r *Recorder) RecordEvent(ctx context.Context, entry *domain.AuditEntry) {
	entry.CreatedAt = time.Now()

	if err := entry.Validate(); err != nil {
		slog.Error("discarding invalid audit entry",
			"action_type", entry.ActionType,
			"tenant", entry.Tenant,
			"error", err)
		r.dropped(entry)
		return
	}

	if err := r.db.CreateAuditEntry(ctx, entry); err != nil {
		slog.Error("failed to persist audit entry",
			"action_type", entry.ActionType,
			"tenant", entry.Tenant,
			"error", err)
		r.dropped(entry)
		return
	}

	if r.metrics != nil {
		r.metrics.AuditEventRecorded(entry)
	}

	if entry.Severity == domain.AuditSeverityLevelCritical {
		r.bus.Publish(app.TopicAuditCriticalEntry, *entry)
	}
}

// RecordPermissionChange records granted or revoked permissions for a user.
// If both lists are empty, nothing is recorded. A call that contains both additions
// and removals is classified as a grant.
func (r *Recorder) RecordPermissionChange(ctx context.Context, event PermissionChangeEvent) {
	if len(event.PermissionsAdded) == 0 && len(event.PermissionsRemoved) == 0 {
		return // nothing changed, nothing to record
	}

	actionType := domain.AuditPermissionRevoked
	severity := domain.AuditSeverityLevelWarning
	if len(event.PermissionsAdded) > 0 {
		actionType = domain.AuditPermissionGranted
		severity = domain.AuditSeverityLevelInfo
	}

	r.RecordEvent(ctx, &domain.AuditEntry{
		Tenant:       event.Tenant,
		UserId:       actorId(ctx),
		ActionType:   actionType,
		Severity:     severity,
		TargetUserId: string(event.TargetUserId),
		Description: fmt.Sprintf("granted %d and revoked %d permission(s) for user %s",
			len(event.PermissionsAdded), len(event.PermissionsRemoved), event.TargetUserId),
		Changes: domain.NewJSONPayload(map[string]any{
			"added":   event.PermissionsAdded,
			"removed": event.PermissionsRemoved,
		}),
		IpAddress: event.IpAddress,
		UserAgent: event.UserAgent,
	})
}

// RecordRoleChange records a role assignment. Elevation to an administrative role is
// always critical. A change to the same role is recorded as well.
func (r *Recorder) RecordRoleChange(ctx context.Context, event RoleChangeEvent) {
	r.RecordEvent(ctx, &domain.AuditEntry{
		Tenant:       event.Tenant,
		UserId:       actorId(ctx),
		ActionType:   domain.AuditRoleChanged,
		Severity:     domain.AuditSeverityForRole(event.NewRole),
		TargetUserId: string(event.TargetUserId),
		Description: fmt.Sprintf("changed role of user %s from %s to %s",
			event.TargetUserId, event.OldRole, event.NewRole),
		Changes: domain.NewJSONPayload(map[string]any{
			"before": string(event.OldRole),
			"after":  string(event.NewRole),
		}),
		IpAddress: event.IpAddress,
		UserAgent: event.UserAgent,
	})
}

// RecordSettingsChange records an update to a tenant settings section.
func (r *Recorder) RecordSettingsChange(ctx context.Context, event SettingsChangeEvent) {
	r.RecordEvent(ctx, &domain.AuditEntry{
		Tenant:             event.Tenant,
		UserId:             actorId(ctx),
		ActionType:         domain.AuditSettingsChanged,
		Severity:           domain.AuditSeverityLevelInfo,
		TargetResourceId:   event.Section,
		TargetResourceType: "settings",
		Description:        fmt.Sprintf("updated settings section %s", event.Section),
		Changes: domain.NewJSONPayload(map[string]any{
			"before": event.OldValues,
			"after":  event.NewValues,
		}),
		IpAddress: event.IpAddress,
		UserAgent: event.UserAgent,
	})
}

// RecordBulkOperation records a phase of a bulk operation. Failed phases are warnings.
func (r *Recorder) RecordBulkOperation(ctx context.Context, event BulkOperationEvent) {
	metadata := map[string]any{
		"affected_count": event.AffectedCount,
	}
	if event.Error != "" {
		metadata["error"] = event.Error
	}

	r.RecordEvent(ctx, &domain.AuditEntry{
		Tenant:             event.Tenant,
		UserId:             actorId(ctx),
		ActionType:         event.Status.ActionType(),
		Severity:           event.Status.Severity(),
		TargetResourceId:   event.OperationId,
		TargetResourceType: "bulk_operation",
		Description:        fmt.Sprintf("bulk operation %s: %s", event.Name, event.Status),
		Metadata:           domain.NewJSONPayload(metadata),
	})
}

// RecordUserLifecycle records creation, update or deletion of a user account.
func (r *Recorder) RecordUserLifecycle(
	ctx context.Context,
	actionType domain.AuditActionType,
	event UserLifecycleEvent,
) {
	entry := &domain.AuditEntry{
		Tenant:       event.Tenant,
		UserId:       actorId(ctx),
		ActionType:   actionType,
		Severity:     domain.AuditSeverityLevelInfo,
		TargetUserId: string(event.TargetUserId),
		Description:  fmt.Sprintf("%s for user %s", actionType, event.TargetUserId),
		IpAddress:    event.IpAddress,
		UserAgent:    event.UserAgent,
	}
	if event.Changes != nil {
		entry.Changes = domain.NewJSONPayload(event.Changes)
	}

	r.RecordEvent(ctx, entry)
}

func (r *Recorder) handleAuthEvent(actionType domain.AuditActionType) func(domain.AuditEventWrapper[AuthEvent]) {
	return func(wrapper domain.AuditEventWrapper[AuthEvent]) {
		// the originating request may already be finished when the handler runs
		ctx := context.Background()
		if wrapper.Ctx != nil {
			ctx = context.WithoutCancel(wrapper.Ctx)
		}

		severity := domain.AuditSeverityLevelInfo
		description := fmt.Sprintf("user %s: %s", wrapper.Event.Username, actionType)
		var metadata domain.JSONPayload

		if actionType == domain.AuditLoginFailed {
			severity = domain.AuditSeverityLevelWarning
			metadata = domain.NewJSONPayload(map[string]any{
				"reason": wrapper.Event.Error,
				"source": wrapper.Source,
			})
		}

		r.RecordEvent(ctx, &domain.AuditEntry{
			Tenant:      wrapper.Event.Tenant,
			UserId:      domain.UserIdentifier(wrapper.Event.Username),
			ActionType:  actionType,
			Severity:    severity,
			Description: description,
			Metadata:    metadata,
			IpAddress:   wrapper.Event.IpAddress,
			UserAgent:   wrapper.Event.UserAgent,
		})
	}
}

func (r *Recorder) dropped(entry *domain.AuditEntry) {
	if r.metrics != nil {
		r.metrics.AuditEventDropped(entry)
	}
}

func actorId(ctx context.Context) domain.UserIdentifier {
	return domain.GetUserInfo(ctx).Id
}
