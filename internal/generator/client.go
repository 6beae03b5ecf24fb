package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	opList   = "list"
	opExport = "export"

	defaultTimeout       = 10 * time.Second
	defaultMaxRowsBytes  = 8 << 20  // 8MB
	defaultMaxExportSize = 50 << 20 // 50MB
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the generator root, e.g. https://random-data-generator.up.railway.app/
	BaseURL string

	// RowsEndpoint is EndpointData or EndpointGenerate.
	RowsEndpoint   string
	ExportEndpoint string

	Timeout   time.Duration
	UserAgent string

	// Outbound rate limiting. Zero RequestsPerSecond disables the limiter.
	RequestsPerSecond float64
	Burst             int

	// MaxExportBytes caps the CSV body read into memory.
	MaxExportBytes int64

	// Cache is optional. Pages are cached under CacheKey{endpoint, query}.
	Cache PageCache

	// HTTPClient overrides the default client (for testing).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the generator API. It is safe for concurrent use.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	baseURL        *url.URL
	rowsEndpoint   string
	exportEndpoint string
	userAgent      string
	maxExportBytes int64
	limiter        *rate.Limiter
	cache          PageCache
	group          singleflight.Group
	logger         *slog.Logger
}

// New creates a client. BaseURL must be an absolute http(s) URL.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url, got %q", cfg.BaseURL)
	}

	rows := strings.Trim(cfg.RowsEndpoint, "/")
	if rows == "" {
		rows = EndpointData
	}
	export := strings.Trim(cfg.ExportEndpoint, "/")
	if export == "" {
		export = EndpointExport
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	maxExport := cfg.MaxExportBytes
	if maxExport <= 0 {
		maxExport = defaultMaxExportSize
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:     httpClient,
		timeout:        timeout,
		baseURL:        base,
		rowsEndpoint:   rows,
		exportEndpoint: export,
		userAgent:      cfg.UserAgent,
		maxExportBytes: maxExport,
		limiter:        limiter,
		cache:          cfg.Cache,
		logger:         logger.With("component", "generator"),
	}, nil
}

// ListRows fetches one page of rows. An empty slice means there are no more
// pages. Identical concurrent requests share one upstream call; the shared
// call is not cancelled when one of its callers gives up.
func (c *Client) ListRows(ctx context.Context, q Query) ([]Row, error) {
	if err := q.Validate(); err != nil {
		return nil, &Error{Op: opList, Endpoint: c.rowsEndpoint, Class: ErrorClassClient, Err: err}
	}

	key := CacheKey{Endpoint: c.rowsEndpoint, Query: q.Values()}.String()

	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			rows, derr := decodeRows(data)
			if derr == nil {
				return rows, nil
			}
			c.logger.Warn("discarding unreadable cached page", "key", key, "error", derr)
			_ = c.cache.Delete(ctx, key)
		case !errors.Is(err, ErrCacheMiss):
			c.logger.Warn("page cache get failed", "key", key, "error", err)
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Detached so a superseded caller does not fail the others sharing
		// this call.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		data, err := c.get(fetchCtx, opList, c.rowsEndpoint, q.Values(), "application/json", defaultMaxRowsBytes)
		if err != nil {
			return nil, err
		}

		rows, err := decodeRows(data)
		if err != nil {
			UpstreamErrors.WithLabelValues(string(ErrorClassDecode)).Inc()
			return nil, &Error{Op: opList, Endpoint: c.rowsEndpoint, StatusCode: http.StatusOK, Class: ErrorClassDecode, Err: err}
		}

		if c.cache != nil {
			if err := c.cache.Set(fetchCtx, key, data); err != nil {
				c.logger.Warn("page cache set failed", "key", key, "error", err)
			}
		}
		return rows, nil
	})

	select {
	case <-ctx.Done():
		return nil, &Error{Op: opList, Endpoint: c.rowsEndpoint, Class: ErrorClassNetwork, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			SharedFetches.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		// Shared results are handed to several callers.
		rows := res.Val.([]Row)
		out := make([]Row, len(rows))
		copy(out, rows)
		return out, nil
	}
}

// ExportCSV downloads the CSV rendition of the dataset for q. The body is
// returned verbatim; the client never builds CSV itself.
func (c *Client) ExportCSV(ctx context.Context, q Query) ([]byte, error) {
	if err := q.Validate(); err != nil {
		return nil, &Error{Op: opExport, Endpoint: c.exportEndpoint, Class: ErrorClassClient, Err: err}
	}
	return c.get(ctx, opExport, c.exportEndpoint, q.Values(), "text/csv", c.maxExportBytes)
}

// RowsEndpoint returns the configured list endpoint name.
func (c *Client) RowsEndpoint() string {
	return c.rowsEndpoint
}

// get performs one GET against endpoint. No retries: a failure is reported
// to the caller as-is.
func (c *Client) get(ctx context.Context, op, endpoint string, query url.Values, accept string, limit int64) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			UpstreamErrors.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			UpstreamRequests.WithLabelValues(endpoint, "rate_limited").Inc()
			return nil, &Error{Op: op, Endpoint: endpoint, Class: ErrorClassRateLimit, Err: err}
		}
	}

	u := c.baseURL.JoinPath(endpoint)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Op: op, Endpoint: endpoint, Class: ErrorClassClient, Err: fmt.Errorf("create request: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	defer func() {
		UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	c.logger.Debug("upstream request", "endpoint", endpoint, "query", u.RawQuery)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		UpstreamErrors.WithLabelValues(string(ErrorClassNetwork)).Inc()
		UpstreamRequests.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn("upstream request failed", "endpoint", endpoint, "error", err)
		return nil, &Error{Op: op, Endpoint: endpoint, Class: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		UpstreamErrors.WithLabelValues(string(class)).Inc()
		c.logger.Warn("upstream returned error status",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"error_class", class,
		)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &Error{Op: op, Endpoint: endpoint, StatusCode: resp.StatusCode, Class: class}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		UpstreamErrors.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &Error{Op: op, Endpoint: endpoint, StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > limit {
		UpstreamErrors.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &Error{Op: op, Endpoint: endpoint, StatusCode: resp.StatusCode, Class: ErrorClassDecode, Err: fmt.Errorf("response exceeds %d bytes", limit)}
	}

	return data, nil
}

func decodeRows(data []byte) ([]Row, error) {
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}
