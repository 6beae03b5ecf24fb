package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Cache backends accepted by CACHE_MODE.
const (
	CacheModeMemory = "memory"
	CacheModeRedis  = "redis"
	CacheModeNone   = "none"
)

// Lookup resolves one environment variable. os.LookupEnv is the default.
type Lookup func(name string) (string, bool)

// Load reads configuration from the process environment and validates it.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom fills a Config from lookup. Every unparsable or missing required
// variable is reported, not only the first.
func LoadFrom(lookup Lookup) (*Config, error) {
	cfg := &Config{}

	var errs []error
	fill(reflect.ValueOf(cfg).Elem(), "", lookup, &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("config load: %w", errors.Join(errs...))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeFor[time.Duration]()

// fill walks the section structs. path names the field in error messages,
// e.g. "Upstream.Timeout".
func fill(v reflect.Value, path string, lookup Lookup, errs *[]error) {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		name := f.Name
		if path != "" {
			name = path + "." + f.Name
		}

		if f.Type.Kind() == reflect.Struct {
			fill(fv, name, lookup, errs)
			continue
		}

		env := f.Tag.Get("env")
		if env == "" {
			continue
		}
		raw, source := resolve(lookup, env, f.Tag.Get("envAlt"))
		if raw == "" {
			if f.Tag.Get("required") == "true" {
				*errs = append(*errs, fmt.Errorf("%s: %s is required", name, env))
				continue
			}
			raw, source = f.Tag.Get("default"), "default"
		}
		if raw == "" {
			continue
		}

		if err := assign(fv, raw); err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %s=%q (%s): %w", name, env, raw, source, err))
		}
	}
}

// resolve returns the first non-empty value of env or alt and which one
// supplied it.
func resolve(lookup Lookup, env, alt string) (string, string) {
	if v, ok := lookup(env); ok && v != "" {
		return v, env
	}
	if alt != "" {
		if v, ok := lookup(alt); ok && v != "" {
			return v, alt
		}
	}
	return "", ""
}

// assign parses raw into the field's kind.
func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(x)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem().Kind())
		}
		// Comma separated; blanks dropped.
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

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

	// Upstream validation
	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("UPSTREAM_BASE_URL (%q) must be an absolute URL", c.Upstream.BaseURL))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, "UPSTREAM_TIMEOUT must be positive")
	}
	if strings.Trim(c.Upstream.RowsEndpoint, "/") == "" {
		errs = append(errs, "UPSTREAM_ROWS_ENDPOINT must not be empty")
	}
	if strings.Trim(c.Upstream.ExportEndpoint, "/") == "" {
		errs = append(errs, "UPSTREAM_EXPORT_ENDPOINT must not be empty")
	}
	if c.Upstream.RequestsPerSecond < 0 {
		errs = append(errs, "UPSTREAM_RPS must be non-negative")
	}
	if c.Upstream.RequestsPerSecond > 0 && c.Upstream.Burst <= 0 {
		errs = append(errs, "UPSTREAM_BURST must be positive when UPSTREAM_RPS is set")
	}
	if c.Upstream.MaxExportBytes <= 0 {
		errs = append(errs, "UPSTREAM_MAX_EXPORT_BYTES must be positive")
	}

	// Cache validation
	switch strings.ToLower(c.Cache.Mode) {
	case CacheModeMemory, CacheModeNone:
	case CacheModeRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, "REDIS_URL is required when CACHE_MODE is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("CACHE_MODE (%q) must be one of: memory, redis, none", c.Cache.Mode))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, "CACHE_TTL must be positive")
	}

	// View validation
	if c.Views.IdleTimeout <= 0 {
		errs = append(errs, "VIEW_IDLE_TIMEOUT must be positive")
	}
	if c.Views.MaxRows <= 0 {
		errs = append(errs, "VIEW_MAX_ROWS must be positive")
	}

	// Export validation
	if c.Export.MaxConcurrent <= 0 {
		errs = append(errs, "EXPORT_MAX_CONCURRENT must be positive")
	}
	if c.Export.MaxWaitTime <= 0 {
		errs = append(errs, "EXPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Export.FileName == "" {
		errs = append(errs, "EXPORT_FILE_NAME must not be empty")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
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

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials embedded in the Redis URL and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Upstream: {BaseURL: %q, Timeout: %s, Rows: %q, Export: %q}, ",
		c.Upstream.BaseURL, c.Upstream.Timeout, c.Upstream.RowsEndpoint, c.Upstream.ExportEndpoint))
	redis := ""
	if c.Cache.RedisURL != "" {
		redis = "[MASKED]"
	}
	b.WriteString(fmt.Sprintf("Cache: {Mode: %q, RedisURL: %s, TTL: %s}, ", c.Cache.Mode, redis, c.Cache.TTL))
	b.WriteString(fmt.Sprintf("Export: {MaxConcurrent: %d, FileName: %q}, ", c.Export.MaxConcurrent, c.Export.FileName))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
