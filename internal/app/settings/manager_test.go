package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

type mockSettingsDb struct {
	settings []domain.TenantSetting
}

func (m *mockSettingsDb) GetSettings(_ context.Context, tenant domain.TenantIdentifier, section string) (
	[]domain.TenantSetting, error,
) {
	var result []domain.TenantSetting
	for _, setting := range m.settings {
		if setting.Tenant == tenant && setting.Section == section {
			result = append(result, setting)
		}
	}
	return result, nil
}

func (m *mockSettingsDb) SaveSetting(_ context.Context, setting *domain.TenantSetting) error {
	for i, existing := range m.settings {
		if existing.Tenant == setting.Tenant && existing.Section == setting.Section && existing.Key == setting.Key {
			m.settings[i] = *setting
			return nil
		}
	}
	m.settings = append(m.settings, *setting)
	return nil
}

type mockRecorder struct {
	events []audit.SettingsChangeEvent
}

func (m *mockRecorder) RecordSettingsChange(_ context.Context, event audit.SettingsChangeEvent) {
	m.events = append(m.events, event)
}

func adminContext(tenant domain.TenantIdentifier) context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{
		Id:      "admin@example.com",
		Tenant:  tenant,
		IsAdmin: true,
	})
}

func testSettingsManager(t *testing.T) (*Manager, *mockSettingsDb, *mockRecorder) {
	t.Helper()

	db := &mockSettingsDb{settings: []domain.TenantSetting{
		{Tenant: "tenant-a", Section: "notifications", Key: "digest", Value: "daily"},
	}}
	recorder := &mockRecorder{}

	manager, err := NewSettingsManager(&config.Config{}, db, recorder)
	require.NoError(t, err)

	return manager, db, recorder
}

func Test_Manager_GetSection(t *testing.T) {
	manager, _, _ := testSettingsManager(t)

	values, err := manager.GetSection(adminContext("tenant-a"), "tenant-a", "notifications")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"digest": "daily"}, values)
}

func Test_Manager_GetSection_foreignTenant(t *testing.T) {
	manager, _, _ := testSettingsManager(t)

	_, err := manager.GetSection(adminContext("tenant-a"), "tenant-b", "notifications")

	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_UpdateSection_recordsDiff(t *testing.T) {
	manager, db, recorder := testSettingsManager(t)

	err := manager.UpdateSection(adminContext("tenant-a"), "tenant-a", "notifications", map[string]string{
		"digest":  "weekly",
		"channel": "email",
	})

	require.NoError(t, err)
	assert.Len(t, db.settings, 2)

	require.Len(t, recorder.events, 1)
	event := recorder.events[0]
	assert.Equal(t, "notifications", event.Section)
	assert.Equal(t, map[string]any{"digest": "daily"}, event.OldValues)
	assert.Equal(t, map[string]any{"digest": "weekly", "channel": "email"}, event.NewValues)
}

func Test_Manager_UpdateSection_noopRecordsNothing(t *testing.T) {
	manager, _, recorder := testSettingsManager(t)

	err := manager.UpdateSection(adminContext("tenant-a"), "tenant-a", "notifications", map[string]string{
		"digest": "daily",
	})

	require.NoError(t, err)
	assert.Empty(t, recorder.events)
}

func Test_Manager_UpdateSection_requiresAdmin(t *testing.T) {
	manager, _, _ := testSettingsManager(t)

	ctx := domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{
		Id:     "member@example.com",
		Tenant: "tenant-a",
	})
	err := manager.UpdateSection(ctx, "tenant-a", "notifications", map[string]string{"digest": "never"})

	assert.ErrorIs(t, err, domain.ErrNoPermission)
}
