package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPayload_RoundTrip(t *testing.T) {
	payload := NewJSONPayload(map[string]any{
		"before": map[string]any{"role": "MEMBER"},
		"after":  map[string]any{"role": "ADMIN"},
		"count":  float64(2),
	})

	raw, err := payload.Value()
	require.NoError(t, err)
	require.IsType(t, "", raw)

	var restored JSONPayload
	err = restored.Scan(raw)
	require.NoError(t, err)

	assert.Equal(t, payload.Data, restored.Data)
}

func TestJSONPayload_NullValue(t *testing.T) {
	payload := JSONPayload{}
	assert.True(t, payload.IsNull())

	raw, err := payload.Value()
	assert.NoError(t, err)
	assert.Nil(t, raw)

	var restored JSONPayload
	err = restored.Scan(nil)
	assert.NoError(t, err)
	assert.True(t, restored.IsNull())
}

func TestJSONPayload_MalformedDataDegradesToNull(t *testing.T) {
	var payload JSONPayload
	err := payload.Scan("{not-json")

	assert.NoError(t, err)
	assert.True(t, payload.IsNull())
}

func TestJSONPayload_ScalarValues(t *testing.T) {
	payload := NewJSONPayload("just a string")

	raw, err := payload.Value()
	require.NoError(t, err)

	var restored JSONPayload
	require.NoError(t, restored.Scan(raw))
	assert.Equal(t, "just a string", restored.Data)
}

func TestAuditSeverityForRole(t *testing.T) {
	assert.Equal(t, AuditSeverityLevelCritical, AuditSeverityForRole(UserRoleSuperAdmin))
	assert.Equal(t, AuditSeverityLevelCritical, AuditSeverityForRole(UserRoleAdmin))
	assert.Equal(t, AuditSeverityLevelInfo, AuditSeverityForRole(UserRoleMember))
	assert.Equal(t, AuditSeverityLevelInfo, AuditSeverityForRole(UserRoleViewer))
}

func TestAuditBulkOperationStatus_Mapping(t *testing.T) {
	assert.Equal(t, AuditBulkOperationStarted, AuditBulkStatusStarted.ActionType())
	assert.Equal(t, AuditBulkOperationCompleted, AuditBulkStatusCompleted.ActionType())
	assert.Equal(t, AuditBulkOperationFailed, AuditBulkStatusFailed.ActionType())

	assert.Equal(t, AuditSeverityLevelInfo, AuditBulkStatusStarted.Severity())
	assert.Equal(t, AuditSeverityLevelInfo, AuditBulkStatusCompleted.Severity())
	assert.Equal(t, AuditSeverityLevelWarning, AuditBulkStatusFailed.Severity())
}

func TestAuditEntry_Validate(t *testing.T) {
	entry := AuditEntry{}
	assert.Error(t, entry.Validate())

	entry.Tenant = "tenant-a"
	assert.Error(t, entry.Validate())

	entry.UserId = "user-1"
	assert.Error(t, entry.Validate())

	entry.ActionType = AuditUserCreated
	assert.NoError(t, entry.Validate())
}

func TestAuditLogFilter_Validate(t *testing.T) {
	filter := AuditLogFilter{}
	assert.Error(t, filter.Validate())

	filter.Tenant = "tenant-a"
	assert.NoError(t, filter.Validate())
}

func TestAuditLogFilter_Normalize(t *testing.T) {
	filter := AuditLogFilter{Tenant: "tenant-a", Offset: -5}
	filter.Normalize()

	assert.Equal(t, DefaultAuditQueryLimit, filter.Limit)
	assert.Equal(t, 0, filter.Offset)

	start := time.Now()
	filter = AuditLogFilter{Tenant: "tenant-a", Limit: 25, Offset: 50, StartDate: &start}
	filter.Normalize()

	assert.Equal(t, 25, filter.Limit)
	assert.Equal(t, 50, filter.Offset)
}
