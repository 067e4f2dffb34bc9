package config

import (
	"fmt"
	"os"

	"github.com/a8m/envsubst"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration of the admin portal. Values are loaded from a YAML
// file, environment variable references in the file are substituted before parsing.
type Config struct {
	Core struct {
		// AdminUser defines the default administrator account that will be created on startup.
		AdminUser     string `yaml:"admin_user"`
		AdminPassword string `yaml:"admin_password"`
		// AdminTenant is the tenant the default administrator account belongs to.
		AdminTenant string `yaml:"admin_tenant"`
	} `yaml:"core"`

	Advanced struct {
		LogLevel string `yaml:"log_level"`
		LogJson  bool   `yaml:"log_json"`
	} `yaml:"advanced"`

	Audit AuditConfig `yaml:"audit"`

	Mail MailConfig `yaml:"mail"`

	Database DatabaseConfig `yaml:"database"`

	Web WebConfig `yaml:"web"`

	Statistics StatisticsConfig `yaml:"statistics"`
}

func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Core.AdminUser = "admin@example.com"
	cfg.Core.AdminTenant = "default"

	cfg.Advanced.LogLevel = "info"

	cfg.Audit = defaultAuditConfig()

	cfg.Database = DatabaseConfig{
		Type: DatabaseSQLite,
		DSN:  "data/portal.db",
	}

	cfg.Web = WebConfig{
		RequestLogging:    false,
		ListeningAddress:  ":8888",
		SessionIdentifier: "portalSession",
	}

	cfg.Statistics = StatisticsConfig{
		Enabled:          false,
		ListeningAddress: ":8787",
	}

	return cfg
}

// GetConfig loads the configuration. The config file defaults to config.yml and can be
// overridden with the PORTAL_CONFIG environment variable. A missing file is not an
// error, the defaults are used in that case.
func GetConfig() (*Config, error) {
	cfg := defaultConfig()

	cfgFileName := "config.yml"
	if envCfgFileName := os.Getenv("PORTAL_CONFIG"); envCfgFileName != "" {
		cfgFileName = envCfgFileName
	}

	if err := loadConfigFile(cfg, cfgFileName); err != nil {
		return nil, fmt.Errorf("failed to load config from yaml: %w", err)
	}

	cfg.Web.Sanitize()

	return cfg, nil
}

func loadConfigFile(cfg any, filename string) error {
	data, err := envsubst.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // no config file, use defaults
		}
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return nil
}
