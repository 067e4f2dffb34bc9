package model

import (
	"time"

	"github.com/opsboard/admin-portal/internal/domain"
)

type AuditEntry struct {
	Id        uint64 `json:"Id"`
	Timestamp string `json:"Timestamp"`

	Tenant string `json:"Tenant"`
	UserId string `json:"UserId"`

	ActionType string `json:"ActionType"`
	Severity   string `json:"Severity"`

	TargetUserId       string `json:"TargetUserId,omitempty"`
	TargetResourceId   string `json:"TargetResourceId,omitempty"`
	TargetResourceType string `json:"TargetResourceType,omitempty"`

	Description string `json:"Description"`

	Changes  any `json:"Changes,omitempty"`
	Metadata any `json:"Metadata,omitempty"`

	IpAddress string `json:"IpAddress,omitempty"`
	UserAgent string `json:"UserAgent,omitempty"`
}

func NewAuditEntry(src *domain.AuditEntry) *AuditEntry {
	return &AuditEntry{
		Id:                 src.UniqueId,
		Timestamp:          src.CreatedAt.Format(time.RFC3339),
		Tenant:             string(src.Tenant),
		UserId:             string(src.UserId),
		ActionType:         string(src.ActionType),
		Severity:           string(src.Severity),
		TargetUserId:       src.TargetUserId,
		TargetResourceId:   src.TargetResourceId,
		TargetResourceType: src.TargetResourceType,
		Description:        src.Description,
		Changes:            src.Changes.Data,
		Metadata:           src.Metadata.Data,
		IpAddress:          src.IpAddress,
		UserAgent:          src.UserAgent,
	}
}

func NewAuditEntries(src []domain.AuditEntry) []AuditEntry {
	results := make([]AuditEntry, len(src))
	for i := range src {
		results[i] = *NewAuditEntry(&src[i])
	}
	return results
}

type AuditStatistics struct {
	Total    int64            `json:"Total"`
	ByAction map[string]int64 `json:"ByAction"`
}

func NewAuditStatistics(src map[domain.AuditActionType]int64) *AuditStatistics {
	stats := &AuditStatistics{
		ByAction: make(map[string]int64, len(src)),
	}
	for actionType, count := range src {
		stats.ByAction[string(actionType)] = count
		stats.Total += count
	}
	return stats
}

type AuditRetentionRequest struct {
	RetentionDays int `json:"RetentionDays" validate:"gte=0"`
}

type AuditRetentionResponse struct {
	Deleted int64 `json:"Deleted"`
}
