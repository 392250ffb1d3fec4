// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Writer   WriterConfig
	Database DatabaseConfig
	Journal  JournalConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DataConfig locates the record files.
type DataConfig struct {
	// Dir is the directory holding the four CSV files (default: InputCSV)
	Dir string `env:"DATA_DIR" default:"InputCSV"`

	HospitalsFile  string `env:"HOSPITALS_FILE" default:"Hospitals.csv"`
	ProvidersFile  string `env:"PROVIDERS_FILE" default:"Providers.csv"`
	PatientsFile   string `env:"PATIENTS_FILE" default:"Patients.csv"`
	TreatmentsFile string `env:"TREATMENTS_FILE" default:"Treatments.csv"`
}

// WriterConfig holds treatment write settings.
type WriterConfig struct {
	// MaxWait is how long an edit waits for the single writer (default: 10s)
	MaxWait time.Duration `env:"WRITE_MAX_WAIT" default:"10s"`
}

// DatabaseConfig holds the optional PostgreSQL mirror connection.
// The mirror is disabled when URL is empty.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// JournalConfig holds edit journal retention settings. It only applies when
// the database mirror is enabled.
type JournalConfig struct {
	// Retention is how long journal entries and snapshot rows are kept (default: 90 days)
	Retention time.Duration `env:"JOURNAL_RETENTION" default:"2160h"`

	// PruneInterval is how often expired entries are deleted (default: 24h)
	PruneInterval time.Duration `env:"JOURNAL_PRUNE_INTERVAL" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Namespace prefixes every metric name (default: caredata)
	Namespace string `env:"METRICS_NAMESPACE" default:"caredata"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// MirrorEnabled reports whether a database URL was configured.
func (c *DatabaseConfig) MirrorEnabled() bool {
	return c.URL != ""
}

// HospitalsPath returns the full path of the hospitals file.
func (c *DataConfig) HospitalsPath() string { return filepath.Join(c.Dir, c.HospitalsFile) }

// ProvidersPath returns the full path of the providers file.
func (c *DataConfig) ProvidersPath() string { return filepath.Join(c.Dir, c.ProvidersFile) }

// PatientsPath returns the full path of the patients file.
func (c *DataConfig) PatientsPath() string { return filepath.Join(c.Dir, c.PatientsFile) }

// TreatmentsPath returns the full path of the treatments file.
func (c *DataConfig) TreatmentsPath() string { return filepath.Join(c.Dir, c.TreatmentsFile) }
