package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/generator"
)

// upstream bundles the generator client with its page cache.
type upstream struct {
	client *generator.Client

	// health probes the cache backend; nil when there is nothing to probe.
	health func(ctx context.Context) error
	close  func() error
}

// newUpstream builds the page cache selected by CACHE_MODE and the client
// on top of it.
func newUpstream(ctx context.Context, cfg *config.Config) (*upstream, error) {
	u := &upstream{close: func() error { return nil }}

	var cache generator.PageCache
	switch strings.ToLower(cfg.Cache.Mode) {
	case config.CacheModeMemory:
		cache = generator.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	case config.CacheModeRedis:
		rc, err := generator.NewRedisCacheFromURL(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("connect page cache: %w", err)
		}
		cache = rc
		u.health = rc.Ping
		u.close = rc.Close
	}

	client, err := generator.New(generator.Config{
		BaseURL:           cfg.Upstream.BaseURL,
		RowsEndpoint:      cfg.Upstream.RowsEndpoint,
		ExportEndpoint:    cfg.Upstream.ExportEndpoint,
		Timeout:           cfg.Upstream.Timeout,
		UserAgent:         cfg.Upstream.UserAgent,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
		MaxExportBytes:    cfg.Upstream.MaxExportBytes,
		Cache:             cache,
		Logger:            slog.Default(),
	})
	if err != nil {
		_ = u.close()
		return nil, fmt.Errorf("create generator client: %w", err)
	}
	u.client = client

	slog.Debug("upstream ready",
		"base_url", cfg.Upstream.BaseURL,
		"rows_endpoint", client.RowsEndpoint(),
		"cache", cfg.Cache.Mode,
	)
	return u, nil
}
