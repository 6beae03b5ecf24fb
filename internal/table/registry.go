package table

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/datatable/internal/regions"
)

// Registry defaults.
const (
	DefaultIdleTimeout     = 30 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Catalog *regions.Catalog
	Fetcher Fetcher

	// IdleTimeout evicts views not touched for this long.
	IdleTimeout     time.Duration
	CleanupInterval time.Duration

	MaxRows  int
	RandIntN func(n int) int
	Logger   *slog.Logger
}

// Registry holds the mounted views. Views expire after IdleTimeout without
// use; eviction closes the view, cancelling any in-flight fetch.
type Registry struct {
	views  *gocache.Cache
	opts   RegistryOptions
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.Catalog == nil {
		opts.Catalog = regions.Builtin()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		views:  gocache.New(opts.IdleTimeout, opts.CleanupInterval),
		opts:   opts,
		logger: logger.With("component", "registry"),
	}

	r.views.OnEvicted(func(id string, item any) {
		v, ok := item.(*View)
		if !ok {
			return
		}
		if !v.Closed() {
			ViewsEvicted.Inc()
			r.logger.Info("view evicted", "view_id", id, "idle_since", v.LastUsed())
			v.Close()
		}
		ViewsActive.Dec()
	})

	return r
}

// Mount creates a view, registers it and performs the initial fetch. The
// view is returned even when the initial fetch fails.
func (r *Registry) Mount(ctx context.Context) (*View, Snapshot, error) {
	v := r.New()
	snap, err := v.Load(ctx)
	return v, snap, err
}

// New creates and registers a view without fetching.
func (r *Registry) New() *View {
	v := NewView(ViewOptions{
		ID:       uuid.NewString(),
		Catalog:  r.opts.Catalog,
		Fetcher:  r.opts.Fetcher,
		MaxRows:  r.opts.MaxRows,
		RandIntN: r.opts.RandIntN,
		Logger:   r.opts.Logger,
	})

	r.views.SetDefault(v.ID(), v)
	ViewsActive.Inc()
	r.logger.Debug("view mounted", "view_id", v.ID())
	return v
}

// Get returns the view and extends its idle deadline. Replace only touches
// ids still present, so a concurrent Unmount is never undone.
func (r *Registry) Get(id string) (*View, error) {
	item, found := r.views.Get(id)
	if !found {
		return nil, ErrViewNotFound
	}
	v := item.(*View)
	if v.Closed() {
		return nil, ErrViewNotFound
	}
	if err := r.views.Replace(id, v, gocache.DefaultExpiration); err != nil {
		return nil, ErrViewNotFound
	}
	return v, nil
}

// Unmount closes and removes the view. Unknown ids are ignored.
func (r *Registry) Unmount(id string) {
	item, found := r.views.Get(id)
	if !found {
		return
	}
	item.(*View).Close()
	r.views.Delete(id)
	r.logger.Debug("view unmounted", "view_id", id)
}

// Len returns the number of registered views, including expired views not
// yet cleaned up.
func (r *Registry) Len() int {
	return r.views.ItemCount()
}

// Close unmounts every view.
func (r *Registry) Close() {
	for id := range r.views.Items() {
		r.Unmount(id)
	}
}
