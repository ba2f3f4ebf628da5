package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. EMAIL_VERIFIER_BACKEND_URL
const EnvPrefix = "EMAIL_VERIFIER"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. When configFile is empty the
// usual locations are searched and a missing file is not an error.
func New(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/email-verifier/")
		v.AddConfigPath("$HOME/.email-verifier")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend defaults
	v.SetDefault("backend.url", "http://localhost:8080")
	v.SetDefault("backend.timeout_seconds", 30)
	v.SetDefault("backend.from_email", "")
	v.SetDefault("backend.hello_name", "")

	// Proxy is disabled unless a host is set
	v.SetDefault("proxy.host", "")
	v.SetDefault("proxy.port", 1080)
	v.SetDefault("proxy.username", "")
	v.SetDefault("proxy.password", "")

	// Batch defaults
	v.SetDefault("batch.concurrency", 5)

	// Retry defaults
	v.SetDefault("retry.count", 2)
	v.SetDefault("retry.base_delay", "1s")

	// Health gate defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.max_probes", 10)
	v.SetDefault("health.interval", "3s")
	v.SetDefault("health.timeout", "5s")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/email_verifier.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/email_verifier?parseTime=true")
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.redis_prefix", "email-verifier")

	// Per-item results as JSON Lines; "-" is stdout, empty disables
	v.SetDefault("output.file", "-")

	// Metrics defaults
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "email_verifier")

	// Input defaults
	v.SetDefault("input.emails", []string{})
	v.SetDefault("input.file", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Set overrides a configuration value
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
