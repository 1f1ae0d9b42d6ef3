// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

// Package config loads the application configuration via Koanf v2 with
// layered sources, highest priority last:
//
//  1. Built-in defaults
//  2. Config file (config.yaml, or HEADLINER_CONFIG_PATH)
//  3. Environment variables (HEADLINER_*, double underscore nests:
//     HEADLINER_SERVER__PORT=8080 sets server.port)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/headliner/internal/articles"
	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/logging"
	"github.com/tomtom215/headliner/internal/offline"
	"github.com/tomtom215/headliner/internal/profile"
)

// DefaultConfigPaths lists the config file search paths in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/headliner/config.yaml",
	"/etc/headliner/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "HEADLINER_CONFIG_PATH"

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "HEADLINER_"

// StoreBackend selects a profile store implementation.
type StoreBackend string

const (
	// BackendRemote uses the remote profile service (production).
	BackendRemote StoreBackend = "remote"
	// BackendMemory uses the in-memory store (development, tests).
	BackendMemory StoreBackend = "memory"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host is the bind address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// Timeout bounds request handling.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the per-IP request limit per minute. 0 disables.
	RateLimit int `koanf:"rate_limit"`
}

// ReconcileConfig configures the background reconciliation service.
type ReconcileConfig struct {
	// Interval is the periodic drain interval while connectivity holds.
	Interval time.Duration `koanf:"interval"`
}

// ProfilesConfig selects and configures the profile store.
type ProfilesConfig struct {
	// Backend selects the store implementation.
	Backend StoreBackend `koanf:"backend"`

	// Remote configures the remote profile service client.
	Remote profile.RemoteConfig `koanf:"remote"`
}

// ArticlesConfig selects and configures the article source.
type ArticlesConfig struct {
	// Backend selects the source implementation ("remote" or "memory").
	Backend StoreBackend `koanf:"backend"`

	// Remote configures the article service client.
	Remote articles.ClientConfig `koanf:"remote"`
}

// Config is the full application configuration.
type Config struct {
	Server          ServerConfig    `koanf:"server"`
	Logging         logging.Config  `koanf:"logging"`
	Personalization feed.Config     `koanf:"personalization"`
	Profiles        ProfilesConfig  `koanf:"profiles"`
	Articles        ArticlesConfig  `koanf:"articles"`
	Offline         offline.Config  `koanf:"offline"`
	Reconcile       ReconcileConfig `koanf:"reconcile"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Timeout:   30 * time.Second,
			RateLimit: 300,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Personalization: feed.DefaultConfig(),
		Profiles: ProfilesConfig{
			Backend: BackendMemory,
			Remote: profile.RemoteConfig{
				Timeout:           10 * time.Second,
				RequestsPerSecond: 20,
			},
		},
		Articles: ArticlesConfig{
			Backend: BackendMemory,
			Remote: articles.ClientConfig{
				Timeout:           10 * time.Second,
				RequestsPerSecond: 20,
				DefaultLimit:      100,
			},
		},
		Offline:   offline.DefaultConfig(),
		Reconcile: ReconcileConfig{Interval: time.Minute},
	}
}

// Load builds the configuration from defaults, an optional config file
// and environment overrides.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// HEADLINER_SERVER__PORT -> server.port
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if err := c.Personalization.Validate(); err != nil {
		return fmt.Errorf("personalization: %w", err)
	}
	switch c.Profiles.Backend {
	case BackendRemote:
		if c.Profiles.Remote.URL == "" {
			return fmt.Errorf("profiles.remote.url required for remote backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("profiles.backend must be %q or %q, got %q", BackendRemote, BackendMemory, c.Profiles.Backend)
	}
	switch c.Articles.Backend {
	case BackendRemote:
		if c.Articles.Remote.URL == "" {
			return fmt.Errorf("articles.remote.url required for remote backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("articles.backend must be %q or %q, got %q", BackendRemote, BackendMemory, c.Articles.Backend)
	}
	if !c.Offline.InMemory && c.Offline.Path == "" {
		return fmt.Errorf("offline.path required")
	}
	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("reconcile.interval must be positive, got %v", c.Reconcile.Interval)
	}
	return nil
}

// findConfigFile returns the first existing config path, honoring the
// environment override.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
