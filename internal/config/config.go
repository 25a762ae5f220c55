// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure for the routing core.
type Config struct {
	App          AppConfig          `koanf:"app"`
	HTTP         HTTPConfig         `koanf:"http"`
	Log          LogConfig          `koanf:"log"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	Cache        CacheConfig        `koanf:"cache"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	Audit        AuditConfig        `koanf:"audit"`
	Retry        RetryConfig        `koanf:"retry"`
	RoutingAPI   RoutingAPIConfig   `koanf:"routing_api"`
	Matrix       MatrixConfig       `koanf:"matrix"`
	Solver       SolverConfig       `koanf:"solver"`
	ExternalData ExternalDataConfig `koanf:"external_data"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig holds settings for the public HTTP server.
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORS            CORSConfig    `koanf:"cors"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	Enabled          bool     `koanf:"enabled"`
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`     // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig holds Prometheus metrics server settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// CacheConfig holds settings for the distance-matrix and optimization-result caches.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // for in-memory backend
}

// Address returns the host:port address of the cache backend.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig holds request rate limiting settings for the HTTP surface.
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Strategy        string        `koanf:"strategy"`
	Backend         string        `koanf:"backend"`
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	RedisAddr       string        `koanf:"redis_addr"`
}

// AuditConfig holds audit-log settings.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Backend         string        `koanf:"backend"`
	FilePath        string        `koanf:"file_path"`
	BufferSize      int           `koanf:"buffer_size"`
	FlushPeriod     time.Duration `koanf:"flush_period"`
	ExcludeMethods  []string      `koanf:"exclude_methods"`
	IncludeRequest  bool          `koanf:"include_request"`
	IncludeResponse bool          `koanf:"include_response"`
}

// RetryConfig holds retry/backoff settings for outbound calls.
type RetryConfig struct {
	MaxAttempts       int           `koanf:"max_attempts"`
	InitialBackoff    time.Duration `koanf:"initial_backoff"`
	MaxBackoff        time.Duration `koanf:"max_backoff"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
}

// RoutingAPIConfig holds settings for the external routing/traffic API used
// by the matrix builder when the matrix source is "api", Enabled is true and
// APIKey is non-empty.
type RoutingAPIConfig struct {
	Enabled    bool          `koanf:"enabled"`
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	BatchSize  int           `koanf:"batch_size"`
	MaxRetries int           `koanf:"max_retries"`
}

// MatrixConfig holds distance/time matrix construction settings.
type MatrixConfig struct {
	Source          string        `koanf:"source"` // haversine, euclidean, api
	AverageSpeedKMH float64       `koanf:"average_speed_kmh"`
	TrafficFactor   float64       `koanf:"traffic_factor"`
	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

// SolverConfig holds settings for the VRP solver wrapper.
type SolverConfig struct {
	MaxDuration           time.Duration `koanf:"max_duration"`
	Threads               int           `koanf:"threads"`
	DistanceScalingFactor int           `koanf:"distance_scaling_factor"`
	CapacityScalingFactor int           `koanf:"capacity_scaling_factor"`
	TimeScalingFactor     int           `koanf:"time_scaling_factor"`
	MaxSafeDistance       float64       `koanf:"max_safe_distance"`
	MaxSafeTimeMinutes    int           `koanf:"max_safe_time_minutes"`
}

// ExternalDataConfig holds settings for the external traffic/weather data provider.
type ExternalDataConfig struct {
	Provider string        `koanf:"provider"` // mock, http
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validSources := map[string]bool{"haversine": true, "euclidean": true, "api": true}
	if c.Matrix.Source != "" && !validSources[strings.ToLower(c.Matrix.Source)] {
		errs = append(errs, fmt.Sprintf("matrix.source must be one of: haversine, euclidean, api, got %s", c.Matrix.Source))
	}

	if c.Matrix.Source == "api" && !c.RoutingAPI.Enabled {
		errs = append(errs, "matrix.source=api requires routing_api.enabled=true")
	}

	if c.Solver.DistanceScalingFactor < 0 || c.Solver.CapacityScalingFactor < 0 || c.Solver.TimeScalingFactor < 0 {
		errs = append(errs, "solver scaling factors must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the app is running in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app is running in a production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
