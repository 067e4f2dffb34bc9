package config

import "strings"

// WebConfig contains the configuration for the web server.
type WebConfig struct {
	// RequestLogging enables logging of all HTTP requests.
	RequestLogging bool `yaml:"request_logging"`
	// ExternalUrl is the URL where a client can access the admin portal.
	ExternalUrl string `yaml:"external_url"`
	// ListeningAddress is the address and port for the web server.
	ListeningAddress string `yaml:"listening_address"`
	// SessionIdentifier is the name of the session cookie.
	SessionIdentifier string `yaml:"session_identifier"`
	// CertFile is the path to the TLS certificate file.
	CertFile string `yaml:"cert_file"`
	// KeyFile is the path to the TLS certificate key file.
	KeyFile string `yaml:"key_file"`
}

func (c *WebConfig) Sanitize() {
	c.ExternalUrl = strings.TrimRight(c.ExternalUrl, "/")
}

// StatisticsConfig contains the configuration for the metrics endpoint.
type StatisticsConfig struct {
	// Enabled controls whether the Prometheus metrics endpoint is started.
	Enabled bool `yaml:"enabled"`
	// ListeningAddress is the address and port for the metrics server.
	ListeningAddress string `yaml:"listening_address"`
}
