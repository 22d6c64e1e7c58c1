// Package config provides configuration loading and validation for burrowdns.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/burrowdns/main.go)
//  2. Environment variables (BURROWDNS_* prefix)
//  3. YAML config file (if specified with --config)
//  4. Hardcoded defaults
//
// Environment variables are mapped from BURROWDNS_CATEGORY_SETTING format,
// e.g. BURROWDNS_SERVER_PORT maps to server.port in YAML.
//
// All configuration is validated during Load() to ensure correctness early.
package config

import (
	"net"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"    mapstructure:"server"`
	Resolver ResolverConfig `yaml:"resolver"  mapstructure:"resolver"`
	Logging  LoggingConfig  `yaml:"logging"   mapstructure:"logging"`
	QueryLog QueryLogConfig `yaml:"query_log" mapstructure:"query_log"`
	API      APIConfig      `yaml:"api"       mapstructure:"api"`
}

// ServerConfig contains the DNS listener settings.
type ServerConfig struct {
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	Workers int    `yaml:"workers" mapstructure:"workers"` // 0 = derive from CPU count
}

// ResolverMode selects the resolution strategy.
const (
	ModeForward   = "forward"
	ModeRecursive = "recursive"
)

// ResolverConfig contains resolution strategy settings.
type ResolverConfig struct {
	Mode            string `yaml:"mode"             mapstructure:"mode"`             // "forward" or "recursive"
	Upstream        string `yaml:"upstream"         mapstructure:"upstream"`         // Forward-mode upstream IPv4
	Root            string `yaml:"root"             mapstructure:"root"`             // Recursive-mode seed root server IPv4
	ExchangeTimeout string `yaml:"exchange_timeout" mapstructure:"exchange_timeout"` // Per upstream exchange (e.g. "3s")
	MaxDelegations  int    `yaml:"max_delegations"  mapstructure:"max_delegations"`
}

// UpstreamIP returns the parsed forward-mode upstream address.
// Valid after Load().
func (r ResolverConfig) UpstreamIP() net.IP { return net.ParseIP(r.Upstream) }

// RootIP returns the parsed recursive-mode root address. Valid after Load().
func (r ResolverConfig) RootIP() net.IP { return net.ParseIP(r.Root) }

// ExchangeTimeoutDuration returns the parsed exchange timeout.
// Valid after Load().
func (r ResolverConfig) ExchangeTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.ExchangeTimeout)
	if err != nil {
		return 0
	}
	return d
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level       string            `yaml:"level"        mapstructure:"level"`
	JSON        bool              `yaml:"json"         mapstructure:"json"`
	IncludePID  bool              `yaml:"include_pid"  mapstructure:"include_pid"`
	ExtraFields map[string]string `yaml:"extra_fields" mapstructure:"extra_fields"`
}

// QueryLogConfig controls the persistent query log.
type QueryLogConfig struct {
	Enabled bool   `yaml:"enabled"  mapstructure:"enabled"`
	Path    string `yaml:"path"     mapstructure:"path"`     // SQLite database file
	MaxRows int    `yaml:"max_rows" mapstructure:"max_rows"` // Retention budget
}

// APIConfig contains the management REST API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}
