package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

// MetricsServer exposes operational counters of the audit subsystem via Prometheus.
type MetricsServer struct {
	*http.Server

	auditRecordedTotal  *prometheus.CounterVec
	auditDroppedTotal   *prometheus.CounterVec
	auditRetentionTotal *prometheus.CounterVec
}

// NewMetricsServer returns a new prometheus server
func NewMetricsServer(cfg *config.Config) *MetricsServer {
	reg := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		Server: &http.Server{
			Addr:    cfg.Statistics.ListeningAddress,
			Handler: mux,
		},

		auditRecordedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_audit_events_recorded_total",
				Help: "Number of audit events that were persisted.",
			}, []string{"action_type", "severity"},
		),
		auditDroppedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_audit_events_dropped_total",
				Help: "Number of audit events that were lost due to storage failures.",
			}, []string{"action_type"},
		),
		auditRetentionTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_audit_retention_deleted_total",
				Help: "Number of audit entries deleted by the retention sweep.",
			}, []string{"tenant"},
		),
	}
}

// Run starts the metrics server. The server is stopped when the context is cancelled.
func (m *MetricsServer) Run(ctx context.Context) {
	go func() {
		if err := m.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics service exited", "address", m.Addr, "error", err)
		}
	}()

	slog.Info("started metrics service", "address", m.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics service shutdown failed", "address", m.Addr, "error", err)
	} else {
		slog.Debug("metrics service shut down", "address", m.Addr)
	}
}

// AuditEventRecorded counts a successfully persisted audit event.
func (m *MetricsServer) AuditEventRecorded(entry *domain.AuditEntry) {
	m.auditRecordedTotal.WithLabelValues(string(entry.ActionType), string(entry.Severity)).Inc()
}

// AuditEventDropped counts an audit event that was lost due to a storage failure.
func (m *MetricsServer) AuditEventDropped(entry *domain.AuditEntry) {
	m.auditDroppedTotal.WithLabelValues(string(entry.ActionType)).Inc()
}

// AuditEntriesDeleted counts entries removed by a retention sweep.
func (m *MetricsServer) AuditEntriesDeleted(tenant domain.TenantIdentifier, count int64) {
	m.auditRetentionTotal.WithLabelValues(string(tenant)).Add(float64(count))
}
