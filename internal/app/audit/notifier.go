package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsboard/admin-portal/internal/app"
	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

// Notifier sends email notifications for critical audit entries.
// Notification failures are logged and discarded, a lost notification must not affect
// the recording of the entry itself.
type Notifier struct {
	cfg    *config.Config
	bus    EventBus
	mailer Mailer
}

func NewAuditNotifier(cfg *config.Config, bus EventBus, mailer Mailer) (*Notifier, error) {
	n := &Notifier{
		cfg:    cfg,
		bus:    bus,
		mailer: mailer,
	}

	if err := n.connectToMessageBus(); err != nil {
		return nil, fmt.Errorf("failed to setup message bus: %w", err)
	}

	return n, nil
}

func (n *Notifier) connectToMessageBus() error {
	if !n.cfg.Audit.NotifyCritical || len(n.cfg.Audit.NotifyRecipients) == 0 {
		return nil // nothing to do
	}

	if err := n.bus.Subscribe(app.TopicAuditCriticalEntry, n.handleCriticalEntry); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicAuditCriticalEntry, err)
	}

	return nil
}

func (n *Notifier) handleCriticalEntry(entry domain.AuditEntry) {
	subject := fmt.Sprintf("Critical audit event in tenant %s: %s", entry.Tenant, entry.ActionType)
	body := fmt.Sprintf(
		"A critical audit event has been recorded.\r\n\r\n"+
			"Tenant:      %s\r\n"+
			"Time:        %s\r\n"+
			"Action:      %s\r\n"+
			"Actor:       %s\r\n"+
			"Target user: %s\r\n"+
			"Description: %s\r\n",
		entry.Tenant,
		entry.CreatedAt.Format(time.RFC1123),
		entry.ActionType,
		entry.UserId,
		entry.TargetUserId,
		entry.Description,
	)

	if err := n.mailer.Send(context.Background(), subject, body, n.cfg.Audit.NotifyRecipients); err != nil {
		slog.Error("failed to send critical audit event notification",
			"tenant", entry.Tenant,
			"action_type", entry.ActionType,
			"error", err)
	}
}
