// Package web provides the HTTP server, HTMX handlers and JSON API of the
// data table.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/regions"
	"github.com/JonMunkholm/datatable/internal/table"
	mw "github.com/JonMunkholm/datatable/internal/web/middleware"
)

// Options wires the server to the table layer.
type Options struct {
	Config   *config.Config
	Registry *table.Registry
	Exporter *table.Exporter

	// Fetcher serves the stateless /api/rows endpoint.
	Fetcher table.Fetcher
	Catalog *regions.Catalog

	// Health is an optional dependency probe run by /healthz, e.g. a Redis ping.
	Health func(ctx context.Context) error
	Logger *slog.Logger
}

// Server is the HTTP server for the data table application.
type Server struct {
	cfg       *config.Config
	registry  *table.Registry
	exporter  *table.Exporter
	fetcher   table.Fetcher
	catalog   *regions.Catalog
	health    func(ctx context.Context) error
	downloads *downloadStore
	logger    *slog.Logger

	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(opts Options) *Server {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = regions.Builtin()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       opts.Config,
		registry:  opts.Registry,
		exporter:  opts.Exporter,
		fetcher:   opts.Fetcher,
		catalog:   catalog,
		health:    opts.Health,
		downloads: newDownloadStore(downloadTTL),
		logger:    logger.With("component", "web"),
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute)
		s.router.Use(limiter.middleware(s))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.Get("/downloads/{token}", s.handleDownload)
	s.router.Get("/healthz", s.handleHealth)

	// View interactions (HTMX)
	s.router.Route("/views/{viewID}", func(r chi.Router) {
		r.Delete("/", s.handleUnmount)

		r.Group(func(r chi.Router) {
			r.Use(s.viewCtx)

			r.Post("/region", s.handleSetRegion)
			r.Post("/slider", s.handleSetSlider)
			r.Post("/input", s.handleSetInput)
			r.Post("/seed", s.handleSetSeed)
			r.Post("/seed/random", s.handleRandomSeed)
			r.Get("/rows", s.handleRows)
			r.Get("/export", s.handleExport)
		})
	})

	auth := mw.APIKeyAuth(&s.cfg.Security)

	// Stateless API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth)
		r.Get("/rows", s.handleAPIRows)
		r.Get("/export", s.handleAPIExport)
		r.Get("/regions", s.handleAPIRegions)
	})

	s.router.With(auth).Handle("/metrics", promhttp.Handler())
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. The CSP admits
// the htmx build served from unpkg.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if enableCSP {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter keeps one token bucket per client IP. Idle buckets expire
// from the cache on their own.
type rateLimiter struct {
	mu       sync.Mutex
	visitors *gocache.Cache
	limit    rate.Limit
	burst    int
}

// newRateLimiter allows perMinute requests per IP, refilled evenly, with a
// burst of the same size.
func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &rateLimiter{
		visitors: gocache.New(3*time.Minute, time.Minute),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim, ok := rl.visitor(ip)
	if !ok {
		lim = rate.NewLimiter(rl.limit, rl.burst)
	}
	rl.visitors.SetDefault(ip, lim)
	return lim.Allow()
}

func (rl *rateLimiter) visitor(ip string) (*rate.Limiter, bool) {
	item, found := rl.visitors.Get(ip)
	if !found {
		return nil, false
	}
	lim, ok := item.(*rate.Limiter)
	return lim, ok
}

// middleware returns an HTTP middleware that rate limits by client IP.
func (rl *rateLimiter) middleware(s *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port so every connection of a client shares a bucket.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestLogger(r).Warn("json encode error", "error", err)
	}
}
