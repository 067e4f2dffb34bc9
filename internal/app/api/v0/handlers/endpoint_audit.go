package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-pkgz/routegroup"

	"github.com/opsboard/admin-portal/internal/app/api/core/request"
	"github.com/opsboard/admin-portal/internal/app/api/core/respond"
	"github.com/opsboard/admin-portal/internal/app/api/v0/model"
	"github.com/opsboard/admin-portal/internal/domain"
)

type AuditService interface {
	// QueryLogs returns the audit entries that match the given filter, newest first.
	QueryLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditEntry, error)
	// GetStatistics returns the number of audit entries per action type.
	GetStatistics(ctx context.Context, tenant domain.TenantIdentifier, start, end *time.Time) (
		map[domain.AuditActionType]int64, error)
	// DeleteOldLogs removes all audit entries of the tenant that are older than the retention period.
	DeleteOldLogs(ctx context.Context, tenant domain.TenantIdentifier, retentionDays int) (int64, error)
	// ExportLogs serializes the matching audit entries to CSV.
	ExportLogs(ctx context.Context, filter domain.AuditLogFilter) (string, error)
}

type AuditEndpoint struct {
	audit         AuditService
	authenticator Authenticator
	validator     Validator
}

func NewAuditEndpoint(audit AuditService, authenticator Authenticator, validator Validator) AuditEndpoint {
	return AuditEndpoint{
		audit:         audit,
		authenticator: authenticator,
		validator:     validator,
	}
}

func (e AuditEndpoint) GetName() string {
	return "AuditEndpoint"
}

func (e AuditEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/audit")
	apiGroup.Use(e.authenticator.LoggedIn(ScopeAdmin))

	apiGroup.HandleFunc("GET /entries", e.handleEntriesGet())
	apiGroup.HandleFunc("GET /stats", e.handleStatsGet())
	apiGroup.HandleFunc("GET /export", e.handleExportGet())
	apiGroup.HandleFunc("POST /retention", e.handleRetentionPost())
}

// handleEntriesGet returns the audit entries of the current tenant, newest first.
// Optional query parameters: user, target, action (repeatable), severity (repeatable),
// start, end (RFC 3339 or date-only, inclusive), limit, offset.
func (e AuditEndpoint) handleEntriesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := e.filterFromRequest(r)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		entries, err := e.audit.QueryLogs(r.Context(), filter)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewAuditEntries(entries))
	}
}

// handleStatsGet returns the number of audit entries per action type for the current
// tenant. The optional start and end query parameters scope the count to a date range.
func (e AuditEndpoint) handleStatsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := parseTimeParam(request.Query(r, "start"), false)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		end, err := parseTimeParam(request.Query(r, "end"), true)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		tenant := domain.GetUserInfo(r.Context()).Tenant
		stats, err := e.audit.GetStatistics(r.Context(), tenant, start, end)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.NewAuditStatistics(stats))
	}
}

// handleExportGet returns the matching audit entries as a CSV attachment.
func (e AuditEndpoint) handleExportGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := e.filterFromRequest(r)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		csv, err := e.audit.ExportLogs(r.Context(), filter)
		if err != nil {
			respondError(w, err)
			return
		}

		filename := fmt.Sprintf("audit-log-%s.csv", time.Now().Format("2006-01-02"))
		respond.Attachment(w, http.StatusOK, filename, "text/csv", []byte(csv))
	}
}

// handleRetentionPost triggers a retention sweep for the current tenant and returns
// the number of deleted entries.
func (e AuditEndpoint) handleRetentionPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.AuditRetentionRequest
		if err := request.BodyJson(r, &req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validator.Struct(req); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		tenant := domain.GetUserInfo(r.Context()).Tenant
		deleted, err := e.audit.DeleteOldLogs(r.Context(), tenant, req.RetentionDays)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, model.AuditRetentionResponse{Deleted: deleted})
	}
}

func (e AuditEndpoint) filterFromRequest(r *http.Request) (domain.AuditLogFilter, error) {
	filter := domain.AuditLogFilter{
		Tenant:       domain.GetUserInfo(r.Context()).Tenant,
		UserId:       domain.UserIdentifier(request.Query(r, "user")),
		TargetUserId: request.Query(r, "target"),
		Limit:        request.QueryInt(r, "limit", 0),
		Offset:       request.QueryInt(r, "offset", 0),
	}

	for _, action := range request.QuerySlice(r, "action") {
		filter.ActionTypes = append(filter.ActionTypes, domain.AuditActionType(action))
	}
	for _, severity := range request.QuerySlice(r, "severity") {
		filter.Severities = append(filter.Severities, domain.AuditSeverityLevel(severity))
	}

	start, err := parseTimeParam(request.Query(r, "start"), false)
	if err != nil {
		return filter, err
	}
	end, err := parseTimeParam(request.Query(r, "end"), true)
	if err != nil {
		return filter, err
	}
	filter.StartDate = start
	filter.EndDate = end

	return filter, nil
}

// parseTimeParam parses an RFC 3339 timestamp or a date-only value. Date-only end
// bounds are extended to the end of the day so that the bound stays inclusive.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid time value %q", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return &t, nil
}
