//go:build integration

package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/opsboard/admin-portal/internal/domain"
)

func tempSqliteRepo(t *testing.T) *SqlRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	repo, err := NewSqlRepository(db)
	if err != nil {
		t.Fatal(err)
	}

	return repo
}

func seedAuditEntry(
	t *testing.T,
	repo *SqlRepo,
	tenant domain.TenantIdentifier,
	action domain.AuditActionType,
	createdAt time.Time,
) *domain.AuditEntry {
	t.Helper()

	entry := &domain.AuditEntry{
		CreatedAt:  createdAt,
		Tenant:     tenant,
		UserId:     "actor-1",
		ActionType: action,
		Severity:   domain.AuditSeverityLevelInfo,
	}
	require.NoError(t, repo.CreateAuditEntry(context.Background(), entry))
	return entry
}

func TestSqlRepo_FindAuditEntries_TenantIsolation(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()
	now := time.Now()

	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserCreated, now)
	seedAuditEntry(t, repo, "tenant-b", domain.AuditUserCreated, now)

	entries, err := repo.FindAuditEntries(ctx, domain.AuditLogFilter{Tenant: "tenant-a", Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.TenantIdentifier("tenant-a"), entries[0].Tenant)
}

func TestSqlRepo_FindAuditEntries_FilterAndOrder(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()
	now := time.Now()

	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserCreated, now.Add(-2*time.Hour))
	seedAuditEntry(t, repo, "tenant-a", domain.AuditRoleChanged, now.Add(-1*time.Hour))
	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserDeleted, now)

	// newest first
	entries, err := repo.FindAuditEntries(ctx, domain.AuditLogFilter{Tenant: "tenant-a", Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.AuditUserDeleted, entries[0].ActionType)
	assert.Equal(t, domain.AuditUserCreated, entries[2].ActionType)

	// action type set membership
	entries, err = repo.FindAuditEntries(ctx, domain.AuditLogFilter{
		Tenant:      "tenant-a",
		ActionTypes: []domain.AuditActionType{domain.AuditRoleChanged, domain.AuditUserDeleted},
		Limit:       100,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// inclusive date bounds
	start := now.Add(-1 * time.Hour)
	end := now
	entries, err = repo.FindAuditEntries(ctx, domain.AuditLogFilter{
		Tenant:    "tenant-a",
		StartDate: &start,
		EndDate:   &end,
		Limit:     100,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// limit and offset
	entries, err = repo.FindAuditEntries(ctx, domain.AuditLogFilter{Tenant: "tenant-a", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditRoleChanged, entries[0].ActionType)
}

func TestSqlRepo_CountAuditEntriesByAction(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()
	now := time.Now()

	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserCreated, now)
	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserCreated, now)
	seedAuditEntry(t, repo, "tenant-a", domain.AuditRoleChanged, now)
	seedAuditEntry(t, repo, "tenant-b", domain.AuditUserCreated, now)

	counts, err := repo.CountAuditEntriesByAction(ctx, "tenant-a", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts[domain.AuditUserCreated])
	assert.Equal(t, int64(1), counts[domain.AuditRoleChanged])
	assert.Len(t, counts, 2)
}

func TestSqlRepo_DeleteAuditEntriesBefore(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()
	cutoff := time.Now().Add(-90 * 24 * time.Hour)

	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserCreated, cutoff.Add(-time.Hour))
	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserCreated, cutoff.Add(time.Hour))
	seedAuditEntry(t, repo, "tenant-b", domain.AuditUserCreated, cutoff.Add(-time.Hour))

	deleted, err := repo.DeleteAuditEntriesBefore(ctx, "tenant-a", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// re-run deletes nothing
	deleted, err = repo.DeleteAuditEntriesBefore(ctx, "tenant-a", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	// other tenant is untouched
	entries, err := repo.FindAuditEntries(ctx, domain.AuditLogFilter{Tenant: "tenant-b", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSqlRepo_GetAuditTenants(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()
	now := time.Now()

	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserCreated, now)
	seedAuditEntry(t, repo, "tenant-a", domain.AuditUserDeleted, now)
	seedAuditEntry(t, repo, "tenant-b", domain.AuditUserCreated, now)

	tenants, err := repo.GetAuditTenants(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]domain.TenantIdentifier{"tenant-a", "tenant-b"}, tenants)
}

func TestSqlRepo_AuditPayloadRoundTrip(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	changes := map[string]any{"before": "MEMBER", "after": "ADMIN"}
	entry := &domain.AuditEntry{
		CreatedAt:  time.Now(),
		Tenant:     "tenant-a",
		UserId:     "actor-1",
		ActionType: domain.AuditRoleChanged,
		Severity:   domain.AuditSeverityLevelCritical,
		Changes:    domain.NewJSONPayload(changes),
	}
	require.NoError(t, repo.CreateAuditEntry(ctx, entry))

	entries, err := repo.FindAuditEntries(ctx, domain.AuditLogFilter{Tenant: "tenant-a", Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, changes, entries[0].Changes.Data)
	assert.True(t, entries[0].Metadata.IsNull())
}

func TestSqlRepo_SaveAndDeleteUser(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := domain.SetUserInfo(context.Background(), domain.SystemAdminContextUserInfo())

	err := repo.SaveUser(ctx, "u1", func(u *domain.User) (*domain.User, error) {
		u.Tenant = "tenant-a"
		u.Email = "u1@example.com"
		u.Role = domain.UserRoleMember
		return u, nil
	})
	require.NoError(t, err)

	user, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", user.Email)

	require.NoError(t, repo.DeleteUser(ctx, "u1"))

	_, err = repo.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
