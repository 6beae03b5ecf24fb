package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/table"
	"github.com/JonMunkholm/datatable/internal/web/templates"
)

var errDownloadExpired = errors.New("download expired")

// handleIndex mounts a new view and renders the full page. A failed first
// fetch still renders the page, with the error shown and a retry sentinel.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, snap, err := s.registry.Mount(r.Context())

	data := templates.PageData{
		Snapshot: snap,
		Regions:  s.catalog.Options(),
	}
	if table.IsReportable(err) {
		msg := table.MapError(err)
		requestLogger(r).Warn("initial fetch failed", "view_id", v.ID(), "error", err, "code", msg.Code)
		data.Alert = &msg
	}

	render(w, r, http.StatusOK, templates.Page(data))
}

// handleSetRegion selects a region. The list clears immediately.
func (s *Server) handleSetRegion(w http.ResponseWriter, r *http.Request) {
	region := r.FormValue("region")
	s.applyParams(w, r, func(ctx context.Context, v *table.View) (table.Snapshot, error) {
		return v.SetRegion(ctx, region)
	})
}

// handleSetSlider moves the errors-per-record slider.
func (s *Server) handleSetSlider(w http.ResponseWriter, r *http.Request) {
	value, err := table.ParseOptionalFloat(r.FormValue("value"))
	if err == nil && value == nil {
		err = fmt.Errorf("%w: slider value is required", table.ErrInvalidParam)
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.applyParams(w, r, func(ctx context.Context, v *table.View) (table.Snapshot, error) {
		return v.SetSlider(ctx, *value)
	})
}

// handleSetInput edits the numeric errors-per-record input. An empty value
// resets both controls to zero.
func (s *Server) handleSetInput(w http.ResponseWriter, r *http.Request) {
	value, err := table.ParseOptionalFloat(r.FormValue("value"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.applyParams(w, r, func(ctx context.Context, v *table.View) (table.Snapshot, error) {
		return v.SetInput(ctx, value)
	})
}

// handleSetSeed sets the seed. An empty value means zero.
func (s *Server) handleSetSeed(w http.ResponseWriter, r *http.Request) {
	seed, err := table.ParseOptionalSeed(r.FormValue("value"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.applyParams(w, r, func(ctx context.Context, v *table.View) (table.Snapshot, error) {
		return v.SetSeed(ctx, seed)
	})
}

// handleRandomSeed draws a random seed. The list clears immediately.
func (s *Server) handleRandomSeed(w http.ResponseWriter, r *http.Request) {
	s.applyParams(w, r, func(ctx context.Context, v *table.View) (table.Snapshot, error) {
		return v.RandomSeed(ctx)
	})
}

// applyParams runs a parameter change and renders the new table body with
// the linked controls out of band.
//
// A superseded result answers 204 so htmx leaves the page alone. A failed
// fetch keeps the rows on screen, shows the error and arms a retry sentinel
// for page 1.
func (s *Server) applyParams(w http.ResponseWriter, r *http.Request, change func(context.Context, *table.View) (table.Snapshot, error)) {
	v := viewFrom(r.Context())
	snap, err := change(r.Context(), v)

	switch {
	case err == nil:
		render(w, r, http.StatusOK,
			templates.TableBody(snap, templates.SentinelArmed),
			templates.ParamsOOB(snap),
		)
	case !table.IsReportable(err):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, table.ErrInvalidParam), errors.Is(err, table.ErrViewClosed):
		s.respondError(w, r, err, statusFor(err))
	default:
		msg := table.MapError(err)
		requestLogger(r).Warn("parameter fetch failed", "error", err, "code", msg.Code)
		render(w, r, http.StatusOK,
			templates.TableBody(snap, templates.SentinelRetry),
			templates.ParamsOOB(snap),
			templates.ToastOOB(msg.Message, msg.Action, msg.Code),
		)
	}
}

// handleRows serves a sentinel request for the next page.
//
// Ignored and superseded advances answer 204. A page 1 request, which
// only happens after page 1 failed, replaces the whole body; later pages
// append rows and re-arm the sentinel in its place.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	snap, err := viewFrom(r.Context()).Advance(r.Context(), page)

	switch {
	case err == nil && snap.Replaced():
		w.Header().Set("HX-Retarget", "#rows")
		w.Header().Set("HX-Reswap", "innerHTML")
		render(w, r, http.StatusOK, templates.TableBody(snap, templates.SentinelArmed))
	case err == nil:
		render(w, r, http.StatusOK, templates.RowsChunk(snap))
	case !table.IsReportable(err):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, table.ErrViewClosed):
		s.respondError(w, r, err, statusFor(err))
	default:
		msg := table.MapError(err)
		requestLogger(r).Warn("page fetch failed", "page", page, "error", err, "code", msg.Code)
		render(w, r, http.StatusOK,
			templates.Sentinel(snap, templates.SentinelRetry),
			templates.ToastOOB(msg.Message, msg.Action, msg.Code),
		)
	}
}

// handleExport exports the view's current state. Plain requests get the
// attachment directly. htmx requests park it and redirect the browser to
// /downloads/{token}, so a failure can surface as a toast instead of a
// broken download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := s.exporter.ExportView(r.Context(), viewFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if !isHTMX(r) {
		writeCSV(w, r, exp)
		return
	}

	token := s.downloads.put(exp)
	w.Header().Set("HX-Redirect", "/downloads/"+token)
	w.WriteHeader(http.StatusOK)
}

// handleDownload serves a parked export once.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	exp, ok := s.downloads.take(chi.URLParam(r, "token"))
	if !ok {
		s.respondError(w, r, errDownloadExpired, http.StatusNotFound)
		return
	}
	writeCSV(w, r, exp)
}

// handleUnmount closes a view. Unknown ids are not an error.
func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	s.registry.Unmount(chi.URLParam(r, "viewID"))
	w.WriteHeader(http.StatusNoContent)
}
