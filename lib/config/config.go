// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the staff console configuration.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Service configures the booking service connection.
	Service ServiceConfig `yaml:"service"`

	// Session configures per-session behavior.
	Session SessionConfig `yaml:"session"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the sections that can be overridden per
// environment.
type ConfigOverrides struct {
	Service *ServiceConfig `yaml:"service,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
}

// ServiceConfig configures the booking service connection.
type ServiceConfig struct {
	// BaseURL is the booking service's HTTP base URL. Required.
	BaseURL string `yaml:"base_url"`

	// LiveSyncURL is the websocket base for trip push channels. When
	// empty, commands derive it from BaseURL.
	LiveSyncURL string `yaml:"live_sync_url"`

	// RequestTimeout bounds each HTTP request, as a Go duration string.
	// Default: 30s.
	RequestTimeout string `yaml:"request_timeout"`
}

// Timeout parses RequestTimeout, applying the 30s default when unset.
func (s ServiceConfig) Timeout() (time.Duration, error) {
	if s.RequestTimeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid request_timeout %q: %w", s.RequestTimeout, err)
	}
	return d, nil
}

// SessionConfig configures per-session behavior.
type SessionConfig struct {
	// RememberLinking pre-seeds the "remember for this session" flag on
	// passenger linking prompts.
	RememberLinking bool `yaml:"remember_linking"`
}

// Default returns the default configuration. These defaults ensure all
// fields have sensible zero-values; the config file is still required
// because BaseURL has no default.
func Default() *Config {
	return &Config{
		Environment: Development,
		Service: ServiceConfig{
			RequestTimeout: "30s",
		},
	}
}

// Load loads configuration from the ASTRAION_CONFIG environment
// variable. There is no fallback path: if the variable is not set,
// Load fails.
func Load() (*Config, error) {
	path := os.Getenv("ASTRAION_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("ASTRAION_CONFIG environment variable not set; " +
			"set it to the path of your astraion.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, applies the
// matching environment override section, and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Service != nil {
		if overrides.Service.BaseURL != "" {
			c.Service.BaseURL = overrides.Service.BaseURL
		}
		if overrides.Service.LiveSyncURL != "" {
			c.Service.LiveSyncURL = overrides.Service.LiveSyncURL
		}
		if overrides.Service.RequestTimeout != "" {
			c.Service.RequestTimeout = overrides.Service.RequestTimeout
		}
	}
	if overrides.Session != nil {
		c.Session = *overrides.Session
	}
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url is required")
	}
	if _, err := c.Service.Timeout(); err != nil {
		return err
	}
	return nil
}
