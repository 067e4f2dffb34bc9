package audit

import (
	"strings"
	"time"

	"github.com/opsboard/admin-portal/internal/domain"
)

// ExportMaxRows is the hard cap on the number of entries in a single CSV export.
const ExportMaxRows = 10_000

var exportColumns = []string{
	"timestamp",
	"action_type",
	"severity",
	"user_id",
	"target_user_id",
	"resource_type",
	"description",
	"ip_address",
}

// entriesToCsv serializes the given entries to CSV with \r\n record separators and a
// header row. Every field is wrapped in double quotes with embedded quotes doubled,
// even when a field contains neither delimiter nor line break. The stdlib csv writer
// quotes only when necessary, which spreadsheet consumers of this export do not accept.
func entriesToCsv(entries []domain.AuditEntry) string {
	var sb strings.Builder

	writeCsvRecord(&sb, exportColumns)
	for i := range entries {
		entry := &entries[i]
		writeCsvRecord(&sb, []string{
			entry.CreatedAt.Format(time.RFC3339),
			string(entry.ActionType),
			string(entry.Severity),
			string(entry.UserId),
			entry.TargetUserId,
			entry.TargetResourceType,
			entry.Description,
			entry.IpAddress,
		})
	}

	return sb.String()
}

func writeCsvRecord(sb *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
}
