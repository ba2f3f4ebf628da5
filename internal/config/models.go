package config

import (
	"strings"
	"time"

	"github.com/mikey/email-verifier/internal/core"
)

// BackendConfig represents the configuration for the verification backend
type BackendConfig struct {
	URL       string
	Timeout   time.Duration
	FromEmail string
	HelloName string
}

// StoreConfig represents the configuration for result persistence
type StoreConfig struct {
	Type        string
	SQLitePath  string
	MySQLDSN    string
	RedisURL    string
	RedisPrefix string
}

// MetricsConfig represents the configuration for metrics export
type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

// OutputConfig represents where per-item result lines are written
type OutputConfig struct {
	File string
}

// InputConfig represents where the emails come from
type InputConfig struct {
	Emails []string
	File   string
}

// GetBackend returns the backend configuration
func (c *Config) GetBackend() BackendConfig {
	return BackendConfig{
		URL:       c.GetString("backend.url"),
		Timeout:   time.Duration(c.GetInt("backend.timeout_seconds")) * time.Second,
		FromEmail: c.GetString("backend.from_email"),
		HelloName: c.GetString("backend.hello_name"),
	}
}

// GetProxy returns the proxy descriptor, or nil when no proxy host is configured
func (c *Config) GetProxy() *core.ProxyDescriptor {
	host := c.GetString("proxy.host")
	if host == "" {
		return nil
	}
	return &core.ProxyDescriptor{
		Host:     host,
		Port:     c.GetInt("proxy.port"),
		Username: c.GetString("proxy.username"),
		Password: c.GetString("proxy.password"),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		SQLitePath:  c.GetString("store.sqlite_path"),
		MySQLDSN:    c.GetString("store.mysql_dsn"),
		RedisURL:    c.GetString("store.redis_url"),
		RedisPrefix: c.GetString("store.redis_prefix"),
	}
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		PushgatewayURL: c.GetString("metrics.pushgateway_url"),
		Job:            c.GetString("metrics.job"),
	}
}

// GetOutput returns the output configuration
func (c *Config) GetOutput() OutputConfig {
	return OutputConfig{
		File: c.GetString("output.file"),
	}
}

// GetInput returns the input configuration. Entries may hold several
// comma-separated emails, as an environment override does.
func (c *Config) GetInput() InputConfig {
	var emails []string
	for _, entry := range c.GetStringSlice("input.emails") {
		emails = append(emails, strings.Split(entry, ",")...)
	}

	return InputConfig{
		Emails: emails,
		File:   c.GetString("input.file"),
	}
}
