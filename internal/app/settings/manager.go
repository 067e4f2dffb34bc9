package settings

import (
	"context"
	"fmt"

	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

// Manager provides read and write access to tenant settings. Settings are grouped into
// sections, a write replaces the values of the changed keys within one section.
type Manager struct {
	cfg *config.Config

	db       SettingsDatabaseRepo
	recorder AuditRecorder
}

func NewSettingsManager(cfg *config.Config, db SettingsDatabaseRepo, recorder AuditRecorder) (*Manager, error) {
	m := &Manager{
		cfg: cfg,

		db:       db,
		recorder: recorder,
	}

	return m, nil
}

// GetSection returns the settings of the given section as a key/value map.
func (m Manager) GetSection(ctx context.Context, tenant domain.TenantIdentifier, section string) (
	map[string]string, error,
) {
	if err := domain.ValidateTenantAccessRights(ctx, tenant); err != nil {
		return nil, err
	}
	if section == "" {
		return nil, fmt.Errorf("missing settings section: %w", domain.ErrInvalidData)
	}

	settings, err := m.db.GetSettings(ctx, tenant, section)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}

	return values, nil
}

// UpdateSection writes the given key/value pairs to the section. Keys that are not
// present in values keep their stored value. The difference between the stored and the
// new values is reported to the audit log, an update without an effective change
// records nothing.
func (m Manager) UpdateSection(
	ctx context.Context,
	tenant domain.TenantIdentifier,
	section string,
	values map[string]string,
) error {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return err
	}
	if err := domain.ValidateTenantAccessRights(ctx, tenant); err != nil {
		return err
	}
	if section == "" {
		return fmt.Errorf("missing settings section: %w", domain.ErrInvalidData)
	}

	current, err := m.GetSection(ctx, tenant, section)
	if err != nil {
		return err
	}

	oldValues := make(map[string]any)
	newValues := make(map[string]any)
	for key, value := range values {
		if currentValue, ok := current[key]; ok && currentValue == value {
			continue
		}

		setting := &domain.TenantSetting{
			Tenant:  tenant,
			Section: section,
			Key:     key,
			Value:   value,
		}
		if err := setting.Validate(); err != nil {
			return err
		}
		if err := m.db.SaveSetting(ctx, setting); err != nil {
			return fmt.Errorf("failed to save setting %s/%s: %w", section, key, err)
		}

		if currentValue, ok := current[key]; ok {
			oldValues[key] = currentValue
		}
		newValues[key] = value
	}

	if len(newValues) == 0 {
		return nil // nothing changed
	}

	m.recorder.RecordSettingsChange(ctx, audit.SettingsChangeEvent{
		Tenant:    tenant,
		Section:   section,
		OldValues: oldValues,
		NewValues: newValues,
	})

	return nil
}
