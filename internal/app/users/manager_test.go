package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

type mockUserDb struct {
	users map[domain.UserIdentifier]*domain.User

	failSave bool
}

func newMockUserDb(users ...*domain.User) *mockUserDb {
	db := &mockUserDb{users: make(map[domain.UserIdentifier]*domain.User)}
	for _, user := range users {
		db.users[user.Identifier] = user
	}
	return db
}

func (m *mockUserDb) GetUser(_ context.Context, id domain.UserIdentifier) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserDb) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserDb) GetTenantUsers(_ context.Context, tenant domain.TenantIdentifier) ([]domain.User, error) {
	var users []domain.User
	for _, user := range m.users {
		if user.Tenant == tenant {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (m *mockUserDb) SaveUser(
	_ context.Context,
	id domain.UserIdentifier,
	updateFunc func(u *domain.User) (*domain.User, error),
) error {
	if m.failSave {
		return fmt.Errorf("storage unavailable")
	}

	user, ok := m.users[id]
	if !ok {
		user = &domain.User{Identifier: id, Role: domain.UserRoleMember}
	}

	updated, err := updateFunc(user)
	if err != nil {
		return err
	}

	m.users[id] = updated
	return nil
}

func (m *mockUserDb) DeleteUser(_ context.Context, id domain.UserIdentifier) error {
	delete(m.users, id)
	return nil
}

type mockBus struct {
	topics []string
}

func (m *mockBus) Publish(topic string, _ ...any) {
	m.topics = append(m.topics, topic)
}

type mockRecorder struct {
	lifecycle   []domain.AuditActionType
	permissions []audit.PermissionChangeEvent
	roles       []audit.RoleChangeEvent
	bulk        []audit.BulkOperationEvent
}

func (m *mockRecorder) RecordUserLifecycle(_ context.Context, actionType domain.AuditActionType, _ audit.UserLifecycleEvent) {
	m.lifecycle = append(m.lifecycle, actionType)
}

func (m *mockRecorder) RecordPermissionChange(_ context.Context, event audit.PermissionChangeEvent) {
	m.permissions = append(m.permissions, event)
}

func (m *mockRecorder) RecordRoleChange(_ context.Context, event audit.RoleChangeEvent) {
	m.roles = append(m.roles, event)
}

func (m *mockRecorder) RecordBulkOperation(_ context.Context, event audit.BulkOperationEvent) {
	m.bulk = append(m.bulk, event)
}

func adminContext(id domain.UserIdentifier, tenant domain.TenantIdentifier) context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{
		Id:      id,
		Tenant:  tenant,
		IsAdmin: true,
	})
}

func testUserManager(t *testing.T, db *mockUserDb) (*Manager, *mockBus, *mockRecorder) {
	t.Helper()

	bus := &mockBus{}
	recorder := &mockRecorder{}

	manager, err := NewUserManager(&config.Config{}, bus, db, recorder)
	require.NoError(t, err)

	return manager, bus, recorder
}

func existingUser(id domain.UserIdentifier) *domain.User {
	return &domain.User{
		Identifier:  id,
		Tenant:      "tenant-a",
		Email:       string(id),
		Role:        domain.UserRoleMember,
		Permissions: []string{"kb:read"},
	}
}

func Test_Manager_EnsureBootstrapAdmin(t *testing.T) {
	cfg := &config.Config{}
	cfg.Core.AdminUser = "admin@example.com"
	cfg.Core.AdminPassword = "secret"
	cfg.Core.AdminTenant = "default"
	db := newMockUserDb()

	manager, err := NewUserManager(cfg, &mockBus{}, db, &mockRecorder{})
	require.NoError(t, err)

	require.NoError(t, manager.EnsureBootstrapAdmin(context.Background()))

	admin, ok := db.users["admin@example.com"]
	require.True(t, ok)
	assert.Equal(t, domain.TenantIdentifier("default"), admin.Tenant)
	assert.Equal(t, domain.UserRoleSuperAdmin, admin.Role)
	assert.NotEqual(t, domain.PrivateString("secret"), admin.Password) // hashed

	// a second run must not touch the existing account
	require.NoError(t, manager.EnsureBootstrapAdmin(context.Background()))
	assert.Len(t, db.users, 1)
}

func Test_Manager_CreateUser(t *testing.T) {
	db := newMockUserDb()
	manager, bus, recorder := testUserManager(t, db)

	user, err := manager.CreateUser(adminContext("admin@example.com", "tenant-a"), &domain.User{
		Identifier: "bob@example.com",
		Tenant:     "tenant-a",
		Email:      "bob@example.com",
		Role:       domain.UserRoleMember,
		Password:   "secret",
	})

	require.NoError(t, err)
	assert.NotEqual(t, domain.PrivateString("secret"), user.Password) // hashed
	assert.Contains(t, db.users, domain.UserIdentifier("bob@example.com"))
	assert.Equal(t, []string{"user:created"}, bus.topics)
	assert.Equal(t, []domain.AuditActionType{domain.AuditUserCreated}, recorder.lifecycle)
}

func Test_Manager_CreateUser_duplicate(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, _, recorder := testUserManager(t, db)

	_, err := manager.CreateUser(adminContext("admin@example.com", "tenant-a"), &domain.User{
		Identifier: "bob@example.com",
		Tenant:     "tenant-a",
		Role:       domain.UserRoleMember,
		Password:   "secret",
	})

	assert.ErrorIs(t, err, domain.ErrNotUnique)
	assert.Empty(t, recorder.lifecycle)
}

func Test_Manager_CreateUser_duplicateEmail(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, _, recorder := testUserManager(t, db)

	_, err := manager.CreateUser(adminContext("admin@example.com", "tenant-a"), &domain.User{
		Identifier: "robert@example.com",
		Tenant:     "tenant-a",
		Email:      "bob@example.com",
		Role:       domain.UserRoleMember,
		Password:   "secret",
	})

	assert.ErrorIs(t, err, domain.ErrNotUnique)
	assert.Empty(t, recorder.lifecycle)
}

func Test_Manager_CreateUser_foreignTenant(t *testing.T) {
	manager, _, _ := testUserManager(t, newMockUserDb())

	_, err := manager.CreateUser(adminContext("admin@example.com", "tenant-a"), &domain.User{
		Identifier: "bob@example.com",
		Tenant:     "tenant-b",
		Role:       domain.UserRoleMember,
		Password:   "secret",
	})

	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_UpdateUser_keepsOldPassword(t *testing.T) {
	existing := existingUser("bob@example.com")
	existing.Password = "$2a$10$hash"
	db := newMockUserDb(existing)
	manager, _, recorder := testUserManager(t, db)

	updated := *existing
	updated.Password = ""
	updated.Firstname = "Bob"

	user, err := manager.UpdateUser(adminContext("admin@example.com", "tenant-a"), &updated)

	require.NoError(t, err)
	assert.Equal(t, domain.PrivateString("$2a$10$hash"), user.Password)
	assert.Equal(t, []domain.AuditActionType{domain.AuditUserUpdated}, recorder.lifecycle)
}

func Test_Manager_UpdateUser_ignoresRoleAndPermissionFields(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, _, recorder := testUserManager(t, db)

	updated := *db.users["bob@example.com"]
	updated.Role = domain.UserRoleAdmin
	updated.Permissions = []string{"billing:write"}

	user, err := manager.UpdateUser(adminContext("admin@example.com", "tenant-a"), &updated)

	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleMember, user.Role)
	assert.Equal(t, []string{"kb:read"}, user.Permissions)
	assert.Empty(t, recorder.roles)
	assert.Empty(t, recorder.permissions)
}

func Test_Manager_UpdateUser_foreignTenant(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, _, recorder := testUserManager(t, db)

	updated := *db.users["bob@example.com"]
	updated.Email = "hijacked@example.com"

	_, err := manager.UpdateUser(adminContext("admin@example.com", "tenant-b"), &updated)

	assert.ErrorIs(t, err, domain.ErrNoPermission)
	assert.Equal(t, "bob@example.com", db.users["bob@example.com"].Email)
	assert.Empty(t, recorder.lifecycle)
}

func Test_Manager_DeleteUser(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, bus, recorder := testUserManager(t, db)

	err := manager.DeleteUser(adminContext("admin@example.com", "tenant-a"), "bob@example.com")

	require.NoError(t, err)
	assert.NotContains(t, db.users, domain.UserIdentifier("bob@example.com"))
	assert.Equal(t, []string{"user:deleted"}, bus.topics)
	assert.Equal(t, []domain.AuditActionType{domain.AuditUserDeleted}, recorder.lifecycle)
}

func Test_Manager_DeleteUser_self(t *testing.T) {
	db := newMockUserDb(existingUser("admin@example.com"))
	manager, _, _ := testUserManager(t, db)

	err := manager.DeleteUser(adminContext("admin@example.com", "tenant-a"), "admin@example.com")

	assert.ErrorIs(t, err, domain.ErrInvalidData)
	assert.Contains(t, db.users, domain.UserIdentifier("admin@example.com"))
}

func Test_Manager_ChangeUserRole(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, _, recorder := testUserManager(t, db)

	user, err := manager.ChangeUserRole(adminContext("admin@example.com", "tenant-a"),
		"bob@example.com", domain.UserRoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, user.Role)
	require.Len(t, recorder.roles, 1)
	assert.Equal(t, domain.UserRoleMember, recorder.roles[0].OldRole)
	assert.Equal(t, domain.UserRoleAdmin, recorder.roles[0].NewRole)
}

func Test_Manager_ChangeUserRole_recordsUnchangedRole(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, _, recorder := testUserManager(t, db)

	_, err := manager.ChangeUserRole(adminContext("admin@example.com", "tenant-a"),
		"bob@example.com", domain.UserRoleMember)

	require.NoError(t, err)
	assert.Len(t, recorder.roles, 1)
}

func Test_Manager_ChangeUserRole_ownDemotion(t *testing.T) {
	admin := existingUser("admin@example.com")
	admin.Role = domain.UserRoleAdmin
	db := newMockUserDb(admin)
	manager, _, _ := testUserManager(t, db)

	_, err := manager.ChangeUserRole(adminContext("admin@example.com", "tenant-a"),
		"admin@example.com", domain.UserRoleMember)

	assert.ErrorIs(t, err, domain.ErrInvalidData)
}

func Test_Manager_SetUserPermissions_diff(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	manager, _, recorder := testUserManager(t, db)

	user, err := manager.SetUserPermissions(adminContext("admin@example.com", "tenant-a"),
		"bob@example.com", []string{"kb:read", "billing:read"})

	require.NoError(t, err)
	assert.Equal(t, []string{"kb:read", "billing:read"}, user.Permissions)
	require.Len(t, recorder.permissions, 1)
	assert.Equal(t, []string{"billing:read"}, recorder.permissions[0].PermissionsAdded)
	assert.Empty(t, recorder.permissions[0].PermissionsRemoved)
}

func Test_Manager_BulkDisableUsers(t *testing.T) {
	db := newMockUserDb(
		existingUser("bob@example.com"),
		existingUser("eve@example.com"),
		existingUser("admin@example.com"),
	)
	manager, _, recorder := testUserManager(t, db)

	disabled, err := manager.BulkDisableUsers(adminContext("admin@example.com", "tenant-a"),
		"tenant-a",
		[]domain.UserIdentifier{"bob@example.com", "eve@example.com", "admin@example.com"},
		"offboarding")

	require.NoError(t, err)
	assert.Equal(t, 2, disabled) // acting user is skipped
	assert.True(t, db.users["bob@example.com"].IsDisabled())
	assert.False(t, db.users["admin@example.com"].IsDisabled())

	require.Len(t, recorder.bulk, 2)
	assert.Equal(t, domain.AuditBulkStatusStarted, recorder.bulk[0].Status)
	assert.Equal(t, domain.AuditBulkStatusCompleted, recorder.bulk[1].Status)
	assert.Equal(t, 2, recorder.bulk[1].AffectedCount)
	assert.Equal(t, recorder.bulk[0].OperationId, recorder.bulk[1].OperationId)
}

func Test_Manager_BulkDisableUsers_failureRecordsFailedPhase(t *testing.T) {
	db := newMockUserDb(existingUser("bob@example.com"))
	db.failSave = true
	manager, _, recorder := testUserManager(t, db)

	_, err := manager.BulkDisableUsers(adminContext("admin@example.com", "tenant-a"),
		"tenant-a", []domain.UserIdentifier{"bob@example.com"}, "offboarding")

	require.Error(t, err)
	require.Len(t, recorder.bulk, 2)
	assert.Equal(t, domain.AuditBulkStatusFailed, recorder.bulk[1].Status)
	assert.NotEmpty(t, recorder.bulk[1].Error)
}
