// internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "ROUTINGCORE_"
	configEnvVar = "CONFIG_PATH"
)

// Loader loads configuration from layered sources.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/routingcore/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigPaths sets the config file search paths.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load loads configuration with ascending priority:
// 1. Defaults (lowest)
// 2. Config file (yaml)
// 3. Environment variables (highest)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, just warn.
		fmt.Printf("Warning: %v\n", err)
	}

	if err := l.loadLegacyEnv(); err != nil {
		return nil, fmt.Errorf("failed to load legacy env: %w", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults loads the default configuration values.
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "routingcore",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":                   8080,
		"http.read_timeout":           30 * time.Second,
		"http.write_timeout":          30 * time.Second,
		"http.shutdown_timeout":       10 * time.Second,
		"http.cors.enabled":           true,
		"http.cors.allowed_origins":   []string{"*"},
		"http.cors.allowed_methods":   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		"http.cors.allowed_headers":   []string{"*"},
		"http.cors.allow_credentials": false,
		"http.cors.max_age":           86400,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "routingcore",
		"metrics.subsystem": "",

		// Cache
		"cache.enabled":     false,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 30 * time.Minute,
		"cache.max_entries": 10000,

		// Rate Limit
		"rate_limit.enabled":          true,
		"rate_limit.requests":         100,
		"rate_limit.window":           time.Minute,
		"rate_limit.strategy":         "sliding_window",
		"rate_limit.backend":          "memory",
		"rate_limit.burst_size":       10,
		"rate_limit.cleanup_interval": 5 * time.Minute,

		// Audit
		"audit.enabled":      true,
		"audit.backend":      "stdout",
		"audit.buffer_size":  1000,
		"audit.flush_period": 5 * time.Second,

		// Retry
		"retry.max_attempts":       3,
		"retry.initial_backoff":    100 * time.Millisecond,
		"retry.max_backoff":        10 * time.Second,
		"retry.backoff_multiplier": 2.0,

		// Routing API (external distance/traffic service)
		"routing_api.enabled":     false,
		"routing_api.timeout":     10 * time.Second,
		"routing_api.batch_size":  25,
		"routing_api.max_retries": 3,

		// Matrix builder
		"matrix.source":            "haversine",
		"matrix.average_speed_kmh": 45.0,
		"matrix.traffic_factor":    1.0,
		"matrix.cache_enabled":     true,
		"matrix.cache_ttl":         30 * time.Minute,

		// Solver
		"solver.max_duration":              30 * time.Second,
		"solver.threads":                   4,
		"solver.distance_scaling_factor":   100,
		"solver.capacity_scaling_factor":   100,
		"solver.time_scaling_factor":       60,
		"solver.max_safe_distance":         1e6,
		"solver.max_safe_time_minutes":     24 * 60,

		// External data provider (traffic/weather)
		"external_data.provider": "mock",
		"external_data.timeout":  5 * time.Second,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile loads configuration from a yaml file.
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// legacyEnvKeys maps the historical, unprefixed environment variables to
// their config keys. They sit between file config and the ROUTINGCORE_*
// variables in priority, so a prefixed variable always wins.
var legacyEnvKeys = map[string]string{
	"GOOGLE_MAPS_API_KEY":               "routing_api.api_key",
	"USE_API_BY_DEFAULT":                "routing_api.enabled",
	"MAX_RETRIES":                       "retry.max_attempts",
	"BACKOFF_FACTOR":                    "retry.backoff_multiplier",
	"RETRY_DELAY_SECONDS":               "retry.initial_backoff",
	"CACHE_EXPIRY_DAYS":                 "matrix.cache_ttl",
	"OPTIMIZATION_RESULT_CACHE_TIMEOUT": "cache.default_ttl",
}

// loadLegacyEnv loads the unprefixed environment variables the service
// historically honored. Duration-valued keys are given in their historical
// units (days, seconds) and converted here.
func (l *Loader) loadLegacyEnv() error {
	overrides := map[string]any{}
	for envKey, cfgKey := range legacyEnvKeys {
		raw := os.Getenv(envKey)
		if raw == "" {
			continue
		}
		switch envKey {
		case "RETRY_DELAY_SECONDS", "OPTIMIZATION_RESULT_CACHE_TIMEOUT":
			if secs, err := time.ParseDuration(raw + "s"); err == nil {
				overrides[cfgKey] = secs
			}
		case "CACHE_EXPIRY_DAYS":
			if days, err := time.ParseDuration(raw + "h"); err == nil {
				overrides[cfgKey] = days * 24
			}
		default:
			overrides[cfgKey] = raw
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	return l.k.Load(confmap.Provider(overrides, "."), nil)
}

// loadEnv loads configuration overrides from environment variables.
func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", l.envToKey), nil)
}

// envToKey maps an environment variable name onto a config key.
// ROUTINGCORE_HTTP_PORT -> http.port is a plain underscore-to-dot
// rewrite, but multi-word segments (ROUTINGCORE_ROUTING_API_API_KEY ->
// routing_api.api_key) are ambiguous under that rule, so the name is
// also matched against the known key set with separators ignored.
func (l *Loader) envToKey(s string) string {
	name := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))

	flat := strings.ReplaceAll(name, "_", ".")
	if l.k.Exists(flat) {
		return flat
	}

	canon := strings.ReplaceAll(name, "_", "")
	for _, key := range l.k.Keys() {
		if strings.ReplaceAll(strings.ReplaceAll(key, ".", ""), "_", "") == canon {
			return key
		}
	}
	return flat
}

// MustLoad loads configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load is a convenience function that loads configuration with default settings.
func Load() (*Config, error) {
	return NewLoader().Load()
}
