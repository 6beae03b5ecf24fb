// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Cache    CacheConfig
	Views    ViewConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
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

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// UpstreamConfig holds settings for the remote data generation API.
type UpstreamConfig struct {
	// BaseURL is the generator API root. Supports GENERATOR_URL as an alias.
	BaseURL string `env:"UPSTREAM_BASE_URL" envAlt:"GENERATOR_URL" default:"https://random-data-generator.up.railway.app/"`

	// Timeout bounds every upstream call (default: 10s)
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" default:"10s"`

	// RowsEndpoint is the list-rows path: "data" or the older "generate" (default: data)
	RowsEndpoint string `env:"UPSTREAM_ROWS_ENDPOINT" default:"data"`

	// ExportEndpoint is the CSV export path (default: export)
	ExportEndpoint string `env:"UPSTREAM_EXPORT_ENDPOINT" default:"export"`

	// UserAgent is sent on every upstream request
	UserAgent string `env:"UPSTREAM_USER_AGENT" default:"datatable/0.3"`

	// RequestsPerSecond caps outbound calls; 0 disables the limiter (default: 20)
	RequestsPerSecond float64 `env:"UPSTREAM_RPS" default:"20"`

	// Burst is the limiter bucket size (default: 10)
	Burst int `env:"UPSTREAM_BURST" default:"10"`

	// MaxExportBytes caps the size of a CSV payload read from upstream (default: 50MB)
	MaxExportBytes int64 `env:"UPSTREAM_MAX_EXPORT_BYTES" default:"52428800"`
}

// CacheConfig holds the row page cache settings.
type CacheConfig struct {
	// Mode selects the page cache backend: memory, redis or none (default: memory)
	Mode string `env:"CACHE_MODE" default:"memory"`

	// RedisURL is the Redis connection URL, required when Mode is redis
	RedisURL string `env:"REDIS_URL"`

	// TTL is how long a fetched page stays cached (default: 5m)
	TTL time.Duration `env:"CACHE_TTL" default:"5m"`

	// CleanupInterval is how often expired memory entries are purged (default: 10m)
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" default:"10m"`
}

// ViewConfig holds settings for mounted table views.
type ViewConfig struct {
	// IdleTimeout unmounts a view nobody has touched for this long (default: 30m)
	IdleTimeout time.Duration `env:"VIEW_IDLE_TIMEOUT" default:"30m"`

	// MaxRows caps the rows a single view accumulates through scrolling (default: 10000)
	MaxRows int `env:"VIEW_MAX_ROWS" default:"10000"`
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	// MaxConcurrent is the maximum number of parallel exports (default: 4)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an export slot (default: 5s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"5s"`

	// FileName is the attachment name offered to the browser (default: data.csv)
	FileName string `env:"EXPORT_FILE_NAME" default:"data.csv"`
}

// RateLimitConfig holds inbound rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards /metrics and /api with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
