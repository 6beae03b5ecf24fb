package table

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/JonMunkholm/datatable/internal/generator"
	"github.com/JonMunkholm/datatable/internal/regions"
)

// Fetcher loads one page of rows. *generator.Client implements it.
type Fetcher interface {
	ListRows(ctx context.Context, q generator.Query) ([]generator.Row, error)
}

// Trigger identifies why a fetch started.
type Trigger int

const (
	// TriggerMount is the initial load of a view.
	TriggerMount Trigger = iota
	// TriggerParams is a parameter change; it starts a new epoch.
	TriggerParams
	// TriggerPage is a scroll-driven advance within the current epoch.
	TriggerPage
)

func (t Trigger) String() string {
	switch t {
	case TriggerMount:
		return "mount"
	case TriggerParams:
		return "params"
	case TriggerPage:
		return "page"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of a view's visible state.
type Snapshot struct {
	ID      string
	Params  Params
	Page    int // pageNumber of the most recent fetch in this epoch
	Loaded  int // last page applied in this epoch, 0 before the first success
	Rows    []generator.Row
	HasMore bool
	Loading bool

	// Generation increases with every fetch. Trigger and Appended describe
	// the fetch that produced this snapshot.
	Generation uint64
	Trigger    Trigger
	Appended   []generator.Row
}

// NextPage is the page the scroll sentinel should request.
func (s Snapshot) NextPage() int {
	return s.Loaded + 1
}

// ExportQuery is the query the export action sends for this state.
func (s Snapshot) ExportQuery() generator.Query {
	return s.Params.Query(s.Page)
}

// Replaced reports whether the producing fetch replaced the list.
func (s Snapshot) Replaced() bool {
	return s.Trigger != TriggerPage || s.Page == generator.FirstPage
}

// ViewOptions configures a View.
type ViewOptions struct {
	ID      string
	Catalog *regions.Catalog
	Fetcher Fetcher

	// MaxRows stops pagination once the list holds this many rows.
	// Zero means unlimited.
	MaxRows int

	// RandIntN draws random seeds; defaults to math/rand/v2.IntN.
	RandIntN func(n int) int
	Logger   *slog.Logger
}

// View is one mounted data table. All methods are safe for concurrent use.
// The lock is never held across the upstream call.
//
// Every fetch takes a new generation number. A parameter change cancels the
// in-flight fetch, and any result whose generation is no longer current is
// discarded with ErrSuperseded, so at most one fetch per view can ever
// mutate the list.
type View struct {
	id       string
	catalog  *regions.Catalog
	fetcher  Fetcher
	maxRows  int
	randIntN func(int) int
	logger   *slog.Logger

	mu         sync.Mutex
	params     Params
	page       int
	loaded     int
	rows       []generator.Row
	hasMore    bool
	loading    bool
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	lastUsed   time.Time
}

// NewView creates a view with default parameters. It does not fetch;
// call Load to mount it.
func NewView(opts ViewOptions) *View {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = regions.Builtin()
	}
	randIntN := opts.RandIntN
	if randIntN == nil {
		randIntN = rand.IntN
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &View{
		id:       opts.ID,
		catalog:  catalog,
		fetcher:  opts.Fetcher,
		maxRows:  opts.MaxRows,
		randIntN: randIntN,
		logger:   logger.With("view_id", opts.ID),
		params:   DefaultParams(catalog.Default()),
		page:     generator.FirstPage,
		hasMore:  true,
		lastUsed: time.Now(),
	}
}

// ID returns the view id.
func (v *View) ID() string {
	return v.id
}

// Snapshot returns the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked(TriggerMount, nil)
}

// Load performs the mount fetch of page 1.
func (v *View) Load(ctx context.Context) (Snapshot, error) {
	return v.fetch(ctx, TriggerMount, func(p Params) (Params, bool, error) {
		return p, false, nil
	})
}

// SetRegion selects a region from the catalogue and clears the list.
func (v *View) SetRegion(ctx context.Context, region string) (Snapshot, error) {
	return v.fetch(ctx, TriggerParams, func(p Params) (Params, bool, error) {
		if !v.catalog.Contains(region) {
			return p, false, fmt.Errorf("%w: unknown region %q", ErrInvalidParam, region)
		}
		p.Region = region
		return p, true, nil
	})
}

// SetSlider moves the slider: slider and input both become v, clamped to
// [0, 10]. NaN is ignored.
func (v *View) SetSlider(ctx context.Context, value float64) (Snapshot, error) {
	return v.fetch(ctx, TriggerParams, func(p Params) (Params, bool, error) {
		next, ok := p.withSlider(value)
		if !ok {
			return p, false, fmt.Errorf("%w: slider value is not a number", ErrInvalidParam)
		}
		return next, false, nil
	})
}

// SetInput edits the numeric input: input becomes value and the slider
// becomes min(value/100, 10). A nil value resets both to zero.
func (v *View) SetInput(ctx context.Context, value *float64) (Snapshot, error) {
	return v.fetch(ctx, TriggerParams, func(p Params) (Params, bool, error) {
		next, ok := p.withInput(value)
		if !ok {
			return p, false, fmt.Errorf("%w: input value is not a number", ErrInvalidParam)
		}
		return next, false, nil
	})
}

// SetSeed sets the seed. A nil value means zero.
func (v *View) SetSeed(ctx context.Context, seed *int64) (Snapshot, error) {
	return v.fetch(ctx, TriggerParams, func(p Params) (Params, bool, error) {
		next, err := p.withSeed(seed)
		return next, false, err
	})
}

// RandomSeed draws a seed uniformly from [0, 1000) and clears the list.
func (v *View) RandomSeed(ctx context.Context) (Snapshot, error) {
	return v.fetch(ctx, TriggerParams, func(p Params) (Params, bool, error) {
		p.Seed = int64(v.randIntN(SeedSpace))
		return p, true, nil
	})
}

// Advance requests page within the current epoch. It returns ErrIgnored
// unless no fetch is in flight, has-more is true and page is exactly the
// next unloaded page, so repeated sentinel events cannot skip or repeat.
func (v *View) Advance(ctx context.Context, page int) (Snapshot, error) {
	return v.fetch(ctx, TriggerPage, func(p Params) (Params, bool, error) {
		return p, false, nil
	}, page)
}

// Close cancels any in-flight fetch; later operations return ErrViewClosed.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.generation++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.loading = false
}

// Closed reports whether the view has been closed.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// LastUsed returns the time of the last state change or fetch.
func (v *View) LastUsed() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUsed
}

// mutation applies a parameter change. It reports whether the list should
// be cleared immediately rather than on the next successful fetch.
type mutation func(Params) (next Params, reset bool, err error)

// fetch is the single fetch path. For TriggerPage, want holds the
// requested page number.
func (v *View) fetch(ctx context.Context, trig Trigger, mutate mutation, want ...int) (Snapshot, error) {
	v.mu.Lock()

	if v.closed {
		v.mu.Unlock()
		return Snapshot{}, ErrViewClosed
	}
	v.lastUsed = time.Now()

	if trig == TriggerPage {
		page := 0
		if len(want) > 0 {
			page = want[0]
		}
		if v.loading || !v.hasMore || page != v.loaded+1 {
			snap := v.snapshotLocked(trig, nil)
			v.mu.Unlock()
			Fetches.WithLabelValues(trig.String(), "ignored").Inc()
			v.logger.Debug("page advance ignored",
				"page", page,
				"loaded", snap.Loaded,
				"loading", snap.Loading,
				"has_more", snap.HasMore,
			)
			return snap, ErrIgnored
		}
		v.page = page
	} else {
		next, reset, err := mutate(v.params)
		if err != nil {
			snap := v.snapshotLocked(trig, nil)
			v.mu.Unlock()
			return snap, err
		}
		v.params = next
		if reset {
			v.rows = nil
		}
		v.page = generator.FirstPage
		v.loaded = 0
		v.hasMore = true
	}

	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	gen := v.generation
	v.loading = true

	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	q := v.params.Query(v.page)
	v.mu.Unlock()

	defer cancel()

	logger := v.logger.With("generation", gen, "trigger", trig.String(), "page", q.PageNumber)
	logger.Debug("fetch started", "region", q.Region, "errors_per_record", q.ErrorsPerRecord, "seed", q.Seed)

	rows, err := v.fetcher.ListRows(fetchCtx, q)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		Fetches.WithLabelValues(trig.String(), "superseded").Inc()
		logger.Debug("fetch superseded", "current_generation", v.generation)
		return v.snapshotLocked(trig, nil), ErrSuperseded
	}

	v.loading = false
	v.cancel = nil
	v.lastUsed = time.Now()

	if err != nil {
		Fetches.WithLabelValues(trig.String(), "error").Inc()
		logger.Warn("fetch failed", "error", err)
		return v.snapshotLocked(trig, nil), fmt.Errorf("load page %d: %w", q.PageNumber, err)
	}

	if q.PageNumber == generator.FirstPage {
		v.rows = rows
	} else {
		v.rows = append(v.rows, rows...)
	}
	v.loaded = q.PageNumber
	v.hasMore = len(rows) > 0
	if v.maxRows > 0 && len(v.rows) >= v.maxRows {
		v.hasMore = false
	}

	Fetches.WithLabelValues(trig.String(), "ok").Inc()
	logger.Debug("fetch applied", "rows", len(rows), "total", len(v.rows), "has_more", v.hasMore)

	return v.snapshotLocked(trig, rows), nil
}

func (v *View) snapshotLocked(trig Trigger, appended []generator.Row) Snapshot {
	// Rows are append-only until replaced, so a capped reslice is safe to
	// share: later appends never write inside it.
	n := len(v.rows)
	return Snapshot{
		ID:         v.id,
		Params:     v.params,
		Page:       v.page,
		Loaded:     v.loaded,
		Rows:       v.rows[:n:n],
		HasMore:    v.hasMore,
		Loading:    v.loading,
		Generation: v.generation,
		Trigger:    trig,
		Appended:   appended,
	}
}
