package domain

import (
	"fmt"
	"time"
)

// TenantSetting is a single configuration value of a tenant, grouped into sections
// (for example "branding" or "security").
type TenantSetting struct {
	Tenant  TenantIdentifier `gorm:"primaryKey;column:tenant_identifier"`
	Section string           `gorm:"primaryKey;column:setting_section"`
	Key     string           `gorm:"primaryKey;column:setting_key"`
	Value   string           `gorm:"column:setting_value"`

	UpdatedAt time.Time
	UpdatedBy string
}

func (s *TenantSetting) Validate() error {
	if s.Tenant == "" {
		return fmt.Errorf("missing tenant identifier: %w", ErrInvalidData)
	}
	if s.Section == "" || s.Key == "" {
		return fmt.Errorf("missing setting section or key: %w", ErrInvalidData)
	}

	return nil
}
