package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/admin-portal/internal/app"
	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

type Manager struct {
	cfg *config.Config
	bus EventBus

	users    UserDatabaseRepo
	recorder AuditRecorder
}

func NewUserManager(cfg *config.Config, bus EventBus, users UserDatabaseRepo, recorder AuditRecorder) (
	*Manager, error,
) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		users:    users,
		recorder: recorder,
	}
	return m, nil
}

// EnsureBootstrapAdmin creates the initial administrator account if it does not exist
// yet. The account is configured via the core config section.
func (m Manager) EnsureBootstrapAdmin(ctx context.Context) error {
	if m.cfg.Core.AdminUser == "" || m.cfg.Core.AdminPassword == "" {
		return nil
	}

	ctx = domain.SetUserInfo(ctx, domain.SystemAdminContextUserInfo())

	id := domain.UserIdentifier(m.cfg.Core.AdminUser)
	_, err := m.users.GetUser(ctx, id)
	switch {
	case err == nil:
		return nil // admin already exists
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("unable to load admin user %s: %w", id, err)
	}

	_, err = m.CreateUser(ctx, &domain.User{
		Identifier: id,
		Tenant:     domain.TenantIdentifier(m.cfg.Core.AdminTenant),
		Email:      m.cfg.Core.AdminUser,
		Role:       domain.UserRoleSuperAdmin,
		Password:   domain.PrivateString(m.cfg.Core.AdminPassword),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user %s: %w", id, err)
	}

	slog.Info("created bootstrap admin user", "user", id, "tenant", m.cfg.Core.AdminTenant)
	return nil
}

func (m Manager) GetUser(ctx context.Context, id domain.UserIdentifier) (*domain.User, error) {
	if err := domain.ValidateUserAccessRights(ctx, id); err != nil {
		return nil, err
	}

	user, err := m.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load user %s: %w", id, err)
	}

	if err := domain.ValidateTenantAccessRights(ctx, user.Tenant); err != nil {
		return nil, err
	}

	return user, nil
}

func (m Manager) GetTenantUsers(ctx context.Context, tenant domain.TenantIdentifier) ([]domain.User, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}
	if err := domain.ValidateTenantAccessRights(ctx, tenant); err != nil {
		return nil, err
	}

	users, err := m.users.GetTenantUsers(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("unable to load users: %w", err)
	}

	return users, nil
}

func (m Manager) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}
	if err := domain.ValidateTenantAccessRights(ctx, user.Tenant); err != nil {
		return nil, err
	}

	existingUser, err := m.users.GetUser(ctx, user.Identifier)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unable to load existing user %s: %w", user.Identifier, err)
	}
	if existingUser != nil {
		return nil, fmt.Errorf("user %s already exists: %w", user.Identifier, domain.ErrNotUnique)
	}

	if user.Email != "" {
		mailUser, err := m.users.GetUserByEmail(ctx, user.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unable to check email %s: %w", user.Email, err)
		}
		if mailUser != nil {
			return nil, fmt.Errorf("email %s already in use: %w", user.Email, domain.ErrNotUnique)
		}
	}

	if err := m.validateCreation(user); err != nil {
		return nil, fmt.Errorf("creation not allowed: %w", err)
	}

	if err := user.HashPassword(); err != nil {
		return nil, err
	}

	err = m.users.SaveUser(ctx, user.Identifier, func(u *domain.User) (*domain.User, error) {
		user.CopyCalculatedAttributes(u)
		return user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("creation failure: %w", err)
	}

	m.bus.Publish(app.TopicUserCreated, *user)
	m.recorder.RecordUserLifecycle(ctx, domain.AuditUserCreated, audit.UserLifecycleEvent{
		Tenant:       user.Tenant,
		TargetUserId: user.Identifier,
		Changes: map[string]any{
			"email": user.Email,
			"role":  string(user.Role),
		},
	})

	return user, nil
}

func (m Manager) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := domain.ValidateUserAccessRights(ctx, user.Identifier); err != nil {
		return nil, err
	}

	existingUser, err := m.users.GetUser(ctx, user.Identifier)
	if err != nil {
		return nil, fmt.Errorf("unable to load existing user %s: %w", user.Identifier, err)
	}
	if err := domain.ValidateTenantAccessRights(ctx, existingUser.Tenant); err != nil {
		return nil, err
	}

	if err := m.validateModifications(ctx, existingUser, user); err != nil {
		return nil, fmt.Errorf("update not allowed: %w", err)
	}

	// role and permission changes have dedicated operations with their own audit trail
	user.Role = existingUser.Role
	user.Permissions = existingUser.Permissions

	if err := user.HashPassword(); err != nil {
		return nil, err
	}
	if user.Password == "" { // keep old password
		user.Password = existingUser.Password
	}

	err = m.users.SaveUser(ctx, existingUser.Identifier, func(u *domain.User) (*domain.User, error) {
		user.CopyCalculatedAttributes(u)
		return user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update failure: %w", err)
	}

	m.bus.Publish(app.TopicUserUpdated, *user)
	m.recorder.RecordUserLifecycle(ctx, domain.AuditUserUpdated, audit.UserLifecycleEvent{
		Tenant:       user.Tenant,
		TargetUserId: user.Identifier,
		Changes:      profileChanges(existingUser, user),
	})

	return user, nil
}

func (m Manager) DeleteUser(ctx context.Context, id domain.UserIdentifier) error {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return err
	}

	existingUser, err := m.users.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to find user %s: %w", id, err)
	}
	if err := domain.ValidateTenantAccessRights(ctx, existingUser.Tenant); err != nil {
		return err
	}
	if domain.GetUserInfo(ctx).Id == id {
		return fmt.Errorf("cannot delete own user: %w", domain.ErrInvalidData)
	}

	if err := m.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("deletion failure: %w", err)
	}

	m.bus.Publish(app.TopicUserDeleted, *existingUser)
	m.recorder.RecordUserLifecycle(ctx, domain.AuditUserDeleted, audit.UserLifecycleEvent{
		Tenant:       existingUser.Tenant,
		TargetUserId: existingUser.Identifier,
	})

	return nil
}

// ChangeUserRole assigns a new role to the user. The assignment is recorded in the
// audit log even if the role did not change.
func (m Manager) ChangeUserRole(ctx context.Context, id domain.UserIdentifier, role domain.UserRole) (
	*domain.User, error,
) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %s: %w", role, domain.ErrInvalidData)
	}

	existingUser, err := m.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load existing user %s: %w", id, err)
	}
	if err := domain.ValidateTenantAccessRights(ctx, existingUser.Tenant); err != nil {
		return nil, err
	}
	if domain.GetUserInfo(ctx).Id == id && !role.IsAdminRole() {
		return nil, fmt.Errorf("cannot remove own admin rights: %w", domain.ErrInvalidData)
	}

	oldRole := existingUser.Role
	err = m.users.SaveUser(ctx, id, func(u *domain.User) (*domain.User, error) {
		u.Role = role
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update failure: %w", err)
	}
	existingUser.Role = role

	m.bus.Publish(app.TopicUserUpdated, *existingUser)
	m.recorder.RecordRoleChange(ctx, audit.RoleChangeEvent{
		Tenant:       existingUser.Tenant,
		TargetUserId: id,
		OldRole:      oldRole,
		NewRole:      role,
	})

	return existingUser, nil
}

// SetUserPermissions replaces the permission list of the user. The difference to the
// previous list is recorded in the audit log, an unchanged list records nothing.
func (m Manager) SetUserPermissions(ctx context.Context, id domain.UserIdentifier, permissions []string) (
	*domain.User, error,
) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	existingUser, err := m.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load existing user %s: %w", id, err)
	}
	if err := domain.ValidateTenantAccessRights(ctx, existingUser.Tenant); err != nil {
		return nil, err
	}

	added, removed := diffPermissions(existingUser.Permissions, permissions)

	err = m.users.SaveUser(ctx, id, func(u *domain.User) (*domain.User, error) {
		u.Permissions = permissions
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update failure: %w", err)
	}
	existingUser.Permissions = permissions

	m.bus.Publish(app.TopicUserUpdated, *existingUser)
	m.recorder.RecordPermissionChange(ctx, audit.PermissionChangeEvent{
		Tenant:             existingUser.Tenant,
		TargetUserId:       id,
		PermissionsAdded:   added,
		PermissionsRemoved: removed,
	})

	return existingUser, nil
}

// BulkDisableUsers disables the given users of the tenant. The operation is recorded
// in the audit log as a started phase and a completed or failed phase.
func (m Manager) BulkDisableUsers(
	ctx context.Context,
	tenant domain.TenantIdentifier,
	ids []domain.UserIdentifier,
	reason string,
) (int, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return 0, err
	}
	if err := domain.ValidateTenantAccessRights(ctx, tenant); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("no users given: %w", domain.ErrInvalidData)
	}

	operationId := uuid.New().String()
	operationName := "disable users"

	m.recorder.RecordBulkOperation(ctx, audit.BulkOperationEvent{
		Tenant:      tenant,
		OperationId: operationId,
		Name:        operationName,
		Status:      domain.AuditBulkStatusStarted,
	})

	now := time.Now()
	disabled := 0
	for _, id := range ids {
		if domain.GetUserInfo(ctx).Id == id {
			continue // never disable the acting user
		}

		err := m.users.SaveUser(ctx, id, func(u *domain.User) (*domain.User, error) {
			if u.Tenant != tenant {
				return nil, fmt.Errorf("user %s does not belong to tenant %s: %w",
					id, tenant, domain.ErrNoPermission)
			}
			u.Disabled = &now
			u.DisabledReason = reason
			return u, nil
		})
		if err != nil {
			m.recorder.RecordBulkOperation(ctx, audit.BulkOperationEvent{
				Tenant:        tenant,
				OperationId:   operationId,
				Name:          operationName,
				Status:        domain.AuditBulkStatusFailed,
				AffectedCount: disabled,
				Error:         err.Error(),
			})
			return disabled, fmt.Errorf("failed to disable user %s: %w", id, err)
		}
		disabled++
	}

	m.recorder.RecordBulkOperation(ctx, audit.BulkOperationEvent{
		Tenant:        tenant,
		OperationId:   operationId,
		Name:          operationName,
		Status:        domain.AuditBulkStatusCompleted,
		AffectedCount: disabled,
	})

	return disabled, nil
}

func (m Manager) validateCreation(new *domain.User) error {
	if new.Identifier == "" {
		return fmt.Errorf("invalid user identifier")
	}
	if new.Identifier == "all" { // the all user identifier collides with the rest api routes
		return fmt.Errorf("reserved user identifier")
	}
	if new.Tenant == "" {
		return fmt.Errorf("invalid tenant identifier")
	}
	if !new.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", new.Role)
	}
	if string(new.Password) == "" {
		return fmt.Errorf("invalid password")
	}

	return nil
}

func (m Manager) validateModifications(ctx context.Context, old, new *domain.User) error {
	currentUser := domain.GetUserInfo(ctx)

	if currentUser.Id != new.Identifier && !currentUser.IsAdmin {
		return fmt.Errorf("insufficient permissions")
	}

	if err := old.EditAllowed(new); err != nil {
		return fmt.Errorf("no access: %w", err)
	}

	if currentUser.Id == old.Identifier && new.IsDisabled() {
		return fmt.Errorf("cannot disable own user")
	}

	return nil
}

// profileChanges lists the profile fields that differ between the two user records.
func profileChanges(old, new *domain.User) map[string]any {
	changes := make(map[string]any)
	if old.Email != new.Email {
		changes["email"] = new.Email
	}
	if old.Firstname != new.Firstname {
		changes["firstname"] = new.Firstname
	}
	if old.Lastname != new.Lastname {
		changes["lastname"] = new.Lastname
	}
	if old.Department != new.Department {
		changes["department"] = new.Department
	}
	if old.IsDisabled() != new.IsDisabled() {
		changes["disabled"] = new.IsDisabled()
	}
	if len(changes) == 0 {
		return nil
	}

	return changes
}

func diffPermissions(old, new []string) (added, removed []string) {
	oldSet := make(map[string]struct{}, len(old))
	for _, p := range old {
		oldSet[p] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new))
	for _, p := range new {
		newSet[p] = struct{}{}
	}

	for _, p := range new {
		if _, ok := oldSet[p]; !ok {
			added = append(added, p)
		}
	}
	for _, p := range old {
		if _, ok := newSet[p]; !ok {
			removed = append(removed, p)
		}
	}

	return added, removed
}
