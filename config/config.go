// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the bridge's configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// ListenAddress is the TCP address the WebSocket server binds to.
	ListenAddress string `yaml:"listen_address"`

	// Grid configures the initial VT grid size, before any resize
	// driven by the producer's reported terminal size.
	Grid GridConfig `yaml:"grid"`

	// Log configures structured log output.
	Log LogConfig `yaml:"log"`

	// Development and Production contain per-environment overrides; the
	// one matching Environment is applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	ListenAddress string      `yaml:"listen_address,omitempty"`
	Grid          *GridConfig `yaml:"grid,omitempty"`
	Log           *LogConfig  `yaml:"log,omitempty"`
}

// GridConfig configures the VT grid's initial dimensions.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LogConfig configures structured log output.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the default configuration. These defaults exist to
// ensure every field has a sensible zero-value, not as a substitute
// for the config file.
func Default() *Config {
	return &Config{
		Environment:   Development,
		ListenAddress: ":8080",
		Grid:          GridConfig{Width: 120, Height: 30},
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// Load loads configuration from the BTOP4WINRESONITE_CONFIG environment
// variable. There is no fallback: if the variable is unset, this fails.
func Load() (*Config, error) {
	path := os.Getenv("BTOP4WINRESONITE_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("BTOP4WINRESONITE_CONFIG environment variable not set; " +
			"set it to the path of your config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, then applies
// environment-specific overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.ListenAddress != "" {
		c.ListenAddress = overrides.ListenAddress
	}
	if overrides.Grid != nil {
		if overrides.Grid.Width > 0 {
			c.Grid.Width = overrides.Grid.Width
		}
		if overrides.Grid.Height > 0 {
			c.Grid.Height = overrides.Grid.Height
		}
	}
	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.ListenAddress == "" {
		errs = append(errs, fmt.Errorf("listen_address is required"))
	}
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		errs = append(errs, fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height))
	}
	logLevels := []string{"debug", "info", "warn", "error"}
	if !contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	logFormats := []string{"text", "json"}
	if !contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
