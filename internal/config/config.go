package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and the
// optional config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Environment variable binding.
	// Uses BURROWDNS_ prefix: BURROWDNS_SERVER_PORT -> server.port
	v.SetEnvPrefix("BURROWDNS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 2054)
	v.SetDefault("server.workers", 0)

	// Resolver defaults
	v.SetDefault("resolver.mode", ModeRecursive)
	v.SetDefault("resolver.upstream", "8.8.8.8")
	v.SetDefault("resolver.root", "198.41.0.4") // a.root-servers.net
	v.SetDefault("resolver.exchange_timeout", "3s")
	v.SetDefault("resolver.max_delegations", 16)

	// Logging defaults
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	// Query log defaults
	v.SetDefault("query_log.enabled", false)
	v.SetDefault("query_log.path", "burrowdns.db")
	v.SetDefault("query_log.max_rows", 10000)

	// Management API defaults.
	// Default to disabled and bound to localhost for safety.
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.api_key", "")
}

// Load reads configuration from the optional file path plus environment
// variables and validates the result.
func Load(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for early, actionable errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.Workers < 0 {
		return errors.New("server.workers must not be negative")
	}

	switch c.Resolver.Mode {
	case ModeForward, ModeRecursive:
	default:
		return fmt.Errorf("resolver.mode must be %q or %q, got %q", ModeForward, ModeRecursive, c.Resolver.Mode)
	}
	if err := validateIPv4("resolver.upstream", c.Resolver.Upstream); err != nil {
		return err
	}
	if err := validateIPv4("resolver.root", c.Resolver.Root); err != nil {
		return err
	}
	if d, err := time.ParseDuration(c.Resolver.ExchangeTimeout); err != nil || d <= 0 {
		return fmt.Errorf("resolver.exchange_timeout invalid: %q", c.Resolver.ExchangeTimeout)
	}
	if c.Resolver.MaxDelegations < 1 {
		return errors.New("resolver.max_delegations must be at least 1")
	}

	if c.QueryLog.Enabled {
		if c.QueryLog.Path == "" {
			return errors.New("query_log.path must be set when the query log is enabled")
		}
		if c.QueryLog.MaxRows < 1 {
			return errors.New("query_log.max_rows must be at least 1")
		}
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			return fmt.Errorf("api.port out of range: %d", c.API.Port)
		}
	}
	return nil
}

func validateIPv4(key, value string) error {
	ip := net.ParseIP(value)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("%s must be an IPv4 address, got %q", key, value)
	}
	return nil
}
