package settings

import (
	"context"

	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/domain"
)

type SettingsDatabaseRepo interface {
	// GetSettings returns all settings of the given section for the given tenant.
	GetSettings(ctx context.Context, tenant domain.TenantIdentifier, section string) ([]domain.TenantSetting, error)
	// SaveSetting creates or updates the given tenant setting.
	SaveSetting(ctx context.Context, setting *domain.TenantSetting) error
}

// AuditRecorder reports settings changes to the audit log.
type AuditRecorder interface {
	RecordSettingsChange(ctx context.Context, event audit.SettingsChangeEvent)
}
