// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads the server's environment-overridable configuration:
// a YAML-then-JSON-fallback LoadFromFile with ${VAR}/${VAR:default}
// substitution over the server's connection, auth, logging, metrics, and
// health sections.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Server      ServerConfig    `yaml:"server" json:"server"`
	Database    DatabaseConfig  `yaml:"database" json:"database"`
	Auth        AuthConfig      `yaml:"auth" json:"auth"`
	Logging     LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics" json:"metrics"`
	Health      HealthConfig    `yaml:"health" json:"health"`
}

// ServerConfig is the HTTP bind address and port.
type ServerConfig struct {
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`
}

// DatabaseConfig is the Postgres connection configuration.
type DatabaseConfig struct {
	URL        string `yaml:"url" json:"url"`
	MaxConns   int32  `yaml:"max_conns" json:"max_conns"`
	LazyConnect bool  `yaml:"lazy_connect" json:"lazy_connect"`
}

// AuthConfig is the session-cookie configuration.
type AuthConfig struct {
	SessionCookieName   string `yaml:"session_cookie_name" json:"session_cookie_name"`
	SessionCookieSecure bool   `yaml:"session_cookie_secure" json:"session_cookie_secure"`
}

// LoggingConfig is the structured-logger configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig is the Prometheus exporter configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig is the health-check server configuration.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// LoadFromFile reads and parses a config file, trying YAML then JSON,
// substitutes environment variables, and applies defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config file (tried YAML and JSON): %w", err)
		}
	}

	SubstituteEnvVarsInConfig(cfg)
	setDefaults(cfg)
	return cfg, nil
}

// setDefaults fills in zero-valued fields with their production defaults.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Auth.SessionCookieName == "" {
		cfg.Auth.SessionCookieName = "session"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Health.Address == "" {
		cfg.Health.Address = ":8081"
	}
}

// Addr renders the server bind address as host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}
