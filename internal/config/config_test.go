package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upstream.BaseURL != "https://random-data-generator.up.railway.app/" {
		t.Errorf("Upstream.BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("Upstream.Timeout = %v, want %v", cfg.Upstream.Timeout, 10*time.Second)
	}
	if cfg.Upstream.RowsEndpoint != "data" {
		t.Errorf("Upstream.RowsEndpoint = %q, want %q", cfg.Upstream.RowsEndpoint, "data")
	}
	if cfg.Export.FileName != "data.csv" {
		t.Errorf("Export.FileName = %q, want %q", cfg.Export.FileName, "data.csv")
	}
	if cfg.Cache.Mode != CacheModeMemory {
		t.Errorf("Cache.Mode = %q, want %q", cfg.Cache.Mode, CacheModeMemory)
	}
	if cfg.Upstream.RequestsPerSecond != 20 {
		t.Errorf("Upstream.RequestsPerSecond = %v, want 20", cfg.Upstream.RequestsPerSecond)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPSTREAM_ROWS_ENDPOINT", "generate")
	t.Setenv("UPSTREAM_RPS", "2.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upstream.RowsEndpoint != "generate" {
		t.Errorf("Upstream.RowsEndpoint = %q, want %q", cfg.Upstream.RowsEndpoint, "generate")
	}
	if cfg.Upstream.RequestsPerSecond != 2.5 {
		t.Errorf("Upstream.RequestsPerSecond = %v, want 2.5", cfg.Upstream.RequestsPerSecond)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("GENERATOR_URL", "http://localhost:4000/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.BaseURL != "http://localhost:4000/" {
		t.Errorf("Upstream.BaseURL = %q, want %q", cfg.Upstream.BaseURL, "http://localhost:4000/")
	}
}

func TestLoad_RedisModeRequiresURL(t *testing.T) {
	t.Setenv("CACHE_MODE", "redis")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for redis mode without REDIS_URL")
	}
	if !strings.Contains(err.Error(), "REDIS_URL") {
		t.Errorf("error should mention REDIS_URL: %v", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "45s")
	t.Setenv("VIEW_IDLE_TIMEOUT", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.Timeout != 45*time.Second {
		t.Errorf("Upstream.Timeout = %v, want %v", cfg.Upstream.Timeout, 45*time.Second)
	}
	if cfg.Views.IdleTimeout != 90*time.Second {
		t.Errorf("Views.IdleTimeout = %v, want %v", cfg.Views.IdleTimeout, 90*time.Second)
	}
}

func TestLoad_InvalidFloat(t *testing.T) {
	t.Setenv("UPSTREAM_RPS", "fast")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid float")
	}
	if !strings.Contains(err.Error(), "UPSTREAM_RPS") {
		t.Errorf("error should mention UPSTREAM_RPS: %v", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Upstream: UpstreamConfig{
			BaseURL:        "https://example.com/",
			Timeout:        10 * time.Second,
			RowsEndpoint:   "data",
			ExportEndpoint: "export",
			MaxExportBytes: 1024,
		},
		Cache:   CacheConfig{Mode: CacheModeMemory, TTL: time.Minute},
		Views:   ViewConfig{IdleTimeout: time.Minute, MaxRows: 100},
		Export:  ExportConfig{MaxConcurrent: 1, MaxWaitTime: time.Second, FileName: "data.csv"},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"relative base url", func(c *Config) { c.Upstream.BaseURL = "/generator" }, "UPSTREAM_BASE_URL"},
		{"zero upstream timeout", func(c *Config) { c.Upstream.Timeout = 0 }, "UPSTREAM_TIMEOUT"},
		{"empty rows endpoint", func(c *Config) { c.Upstream.RowsEndpoint = "/" }, "UPSTREAM_ROWS_ENDPOINT"},
		{"unknown cache mode", func(c *Config) { c.Cache.Mode = "disk" }, "CACHE_MODE"},
		{"burst required with rps", func(c *Config) { c.Upstream.RequestsPerSecond = 5 }, "UPSTREAM_BURST"},
		{"api key required", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.RedisURL = "redis://:hunter2@cache:6379/0"
	cfg.Security.APIKeys = []string{"s3cret"}

	str := cfg.String()
	if strings.Contains(str, "hunter2") || strings.Contains(str, "s3cret") {
		t.Error("String() should mask secrets")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}

func mapLookup(env map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestLoadFrom_ReportsEveryBadVariable(t *testing.T) {
	_, err := LoadFrom(mapLookup(map[string]string{
		"SERVER_PORT":      "eighty",
		"UPSTREAM_TIMEOUT": "soon",
		"VIEW_MAX_ROWS":    "many",
	}))
	if err == nil {
		t.Fatal("LoadFrom() error = nil, want error")
	}
	for _, want := range []string{
		`Server.Port: SERVER_PORT="eighty"`,
		`Upstream.Timeout: UPSTREAM_TIMEOUT="soon"`,
		`Views.MaxRows: VIEW_MAX_ROWS="many"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoadFrom_AltSourceNamedInError(t *testing.T) {
	_, err := LoadFrom(mapLookup(map[string]string{"GENERATOR_URL": "::bad"}))
	if err == nil {
		t.Fatal("LoadFrom() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "UPSTREAM_BASE_URL") {
		t.Errorf("error should name the base URL: %v", err)
	}
}

func TestLoadFrom_EmptyValueFallsBackToDefault(t *testing.T) {
	cfg, err := LoadFrom(mapLookup(map[string]string{"CACHE_MODE": "", "EXPORT_FILE_NAME": ""}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Cache.Mode != CacheModeMemory {
		t.Errorf("Cache.Mode = %q, want %q", cfg.Cache.Mode, CacheModeMemory)
	}
	if cfg.Export.FileName != "data.csv" {
		t.Errorf("Export.FileName = %q, want data.csv", cfg.Export.FileName)
	}
}
