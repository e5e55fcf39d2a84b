package config

import (
	"fmt"
	"net"
	"time"
)

// Store backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultListen is where the daemon listens unless configured otherwise
const DefaultListen = "127.0.0.1:7910"

// Config represents the application configuration file
type Config struct {
	Version   int              `yaml:"version"`
	Store     *StoreConfig     `yaml:"store,omitempty"`
	Daemon    *DaemonConfig    `yaml:"daemon,omitempty"`
	Discovery *DiscoveryConfig `yaml:"discovery,omitempty"`
	LogLevel  string           `yaml:"log_level,omitempty"` // debug, info, warn, error; empty = silent

	path string
}

// StoreConfig selects the preference backend
type StoreConfig struct {
	Backend string `yaml:"backend"`        // file, sqlite or memory
	Path    string `yaml:"path,omitempty"` // Defaults to prefs.yaml / prefs.db in the config dir
}

// DaemonConfig configures 'musikremote serve'
type DaemonConfig struct {
	Listen   string `yaml:"listen"`              // Control API and audio proxy address
	CacheDir string `yaml:"cache_dir,omitempty"` // Defaults to the OS cache dir
	Watch    bool   `yaml:"watch"`               // Reload when the preferences file changes
}

// DiscoveryConfig configures mDNS scans
type DiscoveryConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Version: 1,
		Store: &StoreConfig{
			Backend: BackendFile,
		},
		Daemon: &DaemonConfig{
			Listen: DefaultListen,
			Watch:  true,
		},
		Discovery: &DiscoveryConfig{
			TimeoutSeconds: 5,
		},
	}
}

// fillDefaults replaces missing sections with their defaults
func (c *Config) fillDefaults() {
	d := Default()
	if c.Store == nil {
		c.Store = d.Store
	}
	if c.Store.Backend == "" {
		c.Store.Backend = d.Store.Backend
	}
	if c.Daemon == nil {
		c.Daemon = d.Daemon
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = d.Daemon.Listen
	}
	if c.Discovery == nil {
		c.Discovery = d.Discovery
	}
	if c.Discovery.TimeoutSeconds == 0 {
		c.Discovery.TimeoutSeconds = d.Discovery.TimeoutSeconds
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d (expected 1)", c.Version)
	}
	switch c.Store.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q (expected %s, %s or %s)",
			c.Store.Backend, BackendFile, BackendSQLite, BackendMemory)
	}
	if _, _, err := net.SplitHostPort(c.Daemon.Listen); err != nil {
		return fmt.Errorf("invalid daemon listen address %q: %w", c.Daemon.Listen, err)
	}
	if c.Discovery.TimeoutSeconds < 0 {
		return fmt.Errorf("discovery timeout must not be negative, got %d", c.Discovery.TimeoutSeconds)
	}
	return nil
}

// DiscoveryTimeout returns the scan timeout as a duration
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutSeconds) * time.Second
}

// DaemonURL returns the base URL of the daemon control API
func (c *Config) DaemonURL() string {
	return "http://" + c.Daemon.Listen
}
