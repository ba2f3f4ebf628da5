package config

import (
	"fmt"
	"net/url"

	"github.com/mikey/email-verifier/internal/core"
)

// Bounds for run settings
const (
	MinConcurrency = 1
	MaxConcurrency = 50

	MinRetryCount = 0
	MaxRetryCount = 5

	MinTimeoutSeconds = 1
	MaxTimeoutSeconds = 300

	MinHealthProbes = 1
	MaxHealthProbes = 100
)

// GetRun validates the run settings and returns them resolved
func (c *Config) GetRun() (core.RunConfig, error) {
	concurrency := c.GetInt("batch.concurrency")
	if err := checkRange("batch.concurrency", concurrency, MinConcurrency, MaxConcurrency); err != nil {
		return core.RunConfig{}, err
	}

	retries := c.GetInt("retry.count")
	if err := checkRange("retry.count", retries, MinRetryCount, MaxRetryCount); err != nil {
		return core.RunConfig{}, err
	}

	baseDelay, err := c.GetDuration("retry.base_delay")
	if err != nil {
		return core.RunConfig{}, &core.ConfigurationError{Field: "retry.base_delay", Reason: "is not a valid duration"}
	}
	if baseDelay < 0 {
		return core.RunConfig{}, &core.ConfigurationError{Field: "retry.base_delay", Reason: "must not be negative"}
	}

	timeoutSeconds := c.GetInt("backend.timeout_seconds")
	if err := checkRange("backend.timeout_seconds", timeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds); err != nil {
		return core.RunConfig{}, err
	}

	health, err := c.getGate()
	if err != nil {
		return core.RunConfig{}, err
	}

	return core.RunConfig{
		Concurrency:    concurrency,
		MaxAttempts:    retries + 1,
		BaseDelay:      baseDelay,
		AttemptTimeout: c.GetBackend().Timeout,
		Health:         health,
	}, nil
}

// GetRequestDefaults validates and returns the per-request parameters shared by all items
func (c *Config) GetRequestDefaults() (core.RequestDefaults, error) {
	backend := c.GetBackend()
	proxy := c.GetProxy()
	if proxy != nil {
		if err := checkRange("proxy.port", proxy.Port, 1, 65535); err != nil {
			return core.RequestDefaults{}, err
		}
	}

	return core.RequestDefaults{
		FromEmail: backend.FromEmail,
		HelloName: backend.HelloName,
		Proxy:     proxy,
	}, nil
}

// ValidateBackend checks that a usable backend URL is configured
func (c *Config) ValidateBackend() error {
	raw := c.GetBackend().URL
	if raw == "" {
		return &core.ConfigurationError{Field: "backend.url", Reason: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &core.ConfigurationError{Field: "backend.url", Reason: "must be an absolute http(s) URL"}
	}
	return nil
}

func (c *Config) getGate() (core.GateConfig, error) {
	gate := core.GateConfig{
		Enabled:   c.GetBool("health.enabled"),
		MaxProbes: c.GetInt("health.max_probes"),
	}
	if !gate.Enabled {
		return gate, nil
	}

	if err := checkRange("health.max_probes", gate.MaxProbes, MinHealthProbes, MaxHealthProbes); err != nil {
		return core.GateConfig{}, err
	}

	var err error
	if gate.Interval, err = c.GetDuration("health.interval"); err != nil || gate.Interval < 0 {
		return core.GateConfig{}, &core.ConfigurationError{Field: "health.interval", Reason: "must be a non-negative duration"}
	}
	if gate.ProbeTimeout, err = c.GetDuration("health.timeout"); err != nil || gate.ProbeTimeout <= 0 {
		return core.GateConfig{}, &core.ConfigurationError{Field: "health.timeout", Reason: "must be a positive duration"}
	}

	return gate, nil
}

func checkRange(field string, value, min, max int) error {
	if value < min || value > max {
		return &core.ConfigurationError{
			Field:  field,
			Reason: fmt.Sprintf("must be between %d and %d, got %d", min, max, value),
		}
	}
	return nil
}
