package config

import "time"

// AuditConfig controls the audit logging subsystem.
type AuditConfig struct {
	// IncludeAuthEvents controls whether login, logout and failed login attempts are recorded.
	IncludeAuthEvents bool `yaml:"include_auth_events"`
	// RetentionDays is the maximum age of audit entries in calendar days. The scheduled
	// retention sweep deletes older entries. A value of 0 disables the scheduled sweep.
	RetentionDays int `yaml:"retention_days"`
	// SweepInterval is the interval at which the scheduled retention sweep runs.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// NotifyCritical enables email notifications for critical audit entries.
	NotifyCritical bool `yaml:"notify_critical"`
	// NotifyRecipients are the email addresses that receive critical event notifications.
	NotifyRecipients []string `yaml:"notify_recipients"`
}

func defaultAuditConfig() AuditConfig {
	return AuditConfig{
		IncludeAuthEvents: true,
		RetentionDays:     90,
		SweepInterval:     12 * time.Hour,
	}
}
