package config

import (
	"fmt"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads the configuration from the environment, applies the default
// tags and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := fill(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// lookup returns the variable named by the env tag and its value. The envAlt
// variable is consulted when the first is unset, then the default tag.
func lookup(tag reflect.StructTag) (name, value string) {
	name = tag.Get("env")
	for _, key := range []string{name, tag.Get("envAlt")} {
		if key == "" {
			continue
		}
		if v := os.Getenv(key); v != "" {
			return name, v
		}
	}
	return name, tag.Get("default")
}

// fill walks the config sections and sets every tagged field.
func fill(v reflect.Value) error {
	for i := 0; i < v.NumField(); i++ {
		field, sf := v.Field(i), v.Type().Field(i)

		if sf.Type.Kind() == reflect.Struct {
			if err := fill(field); err != nil {
				return err
			}
			continue
		}

		name, value := lookup(sf.Tag)
		if name == "" || value == "" {
			continue
		}
		if err := parseInto(field, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}
	return nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	listType     = reflect.TypeOf([]string(nil))
)

// parseInto covers the field types Config declares. Lists are comma separated.
func parseInto(field reflect.Value, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
	case field.Type() == listType:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	case field.Kind() == reflect.String:
		field.SetString(value)
	case field.Kind() == reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(int64(n))
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Data validation
	if strings.TrimSpace(c.Data.Dir) == "" {
		errs = append(errs, "DATA_DIR must not be empty")
	}
	files := map[string]string{
		"HOSPITALS_FILE":  c.Data.HospitalsFile,
		"PROVIDERS_FILE":  c.Data.ProvidersFile,
		"PATIENTS_FILE":   c.Data.PatientsFile,
		"TREATMENTS_FILE": c.Data.TreatmentsFile,
	}
	for _, name := range []string{"HOSPITALS_FILE", "PROVIDERS_FILE", "PATIENTS_FILE", "TREATMENTS_FILE"} {
		if strings.TrimSpace(files[name]) == "" {
			errs = append(errs, name+" must not be empty")
		}
	}

	// Writer validation
	if c.Writer.MaxWait <= 0 {
		errs = append(errs, "WRITE_MAX_WAIT must be positive")
	}

	// Database validation, only when the mirror is enabled
	if c.Database.MirrorEnabled() {
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Journal.Retention <= 0 {
			errs = append(errs, "JOURNAL_RETENTION must be positive")
		}
		if c.Journal.PruneInterval <= 0 {
			errs = append(errs, "JOURNAL_PRUNE_INTERVAL must be positive")
		}
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	for _, cidr := range c.Security.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil && net.ParseIP(cidr) == nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not a valid CIDR or IP", cidr))
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	// Metrics validation
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		errs = append(errs, "METRICS_NAMESPACE must not be empty when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	dbURL := "[DISABLED]"
	if c.Database.MirrorEnabled() {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Data: {Dir: %q}, ", c.Data.Dir))
	b.WriteString(fmt.Sprintf("Writer: {MaxWait: %s}, ", c.Writer.MaxWait))
	b.WriteString(fmt.Sprintf("Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		dbURL, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Journal: {Retention: %s, PruneInterval: %s}, ",
		c.Journal.Retention, c.Journal.PruneInterval))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}, ",
		c.Logging.Level, c.Logging.Format))
	b.WriteString(fmt.Sprintf("Metrics: {Enabled: %v, Namespace: %q}",
		c.Metrics.Enabled, c.Metrics.Namespace))
	b.WriteString("}")
	return b.String()
}
