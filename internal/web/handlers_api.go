package web

import (
	"net/http"

	"github.com/JonMunkholm/datatable/internal/generator"
	"github.com/JonMunkholm/datatable/internal/regions"
)

// RowsResponse is the body of GET /api/rows.
type RowsResponse struct {
	Region          string          `json:"region"`
	ErrorsPerRecord float64         `json:"errorsPerRecord"`
	Seed            int64           `json:"seed"`
	PageNumber      int             `json:"pageNumber"`
	Rows            []generator.Row `json:"rows"`
	HasMore         bool            `json:"hasMore"`
}

// RegionsResponse is the body of GET /api/regions.
type RegionsResponse struct {
	Default string           `json:"default"`
	Regions []regions.Region `json:"regions"`
}

// handleAPIRows fetches one page without any view state.
func (s *Server) handleAPIRows(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	rows, err := s.fetcher.ListRows(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if rows == nil {
		rows = []generator.Row{}
	}

	writeJSON(w, r, RowsResponse{
		Region:          q.Region,
		ErrorsPerRecord: q.ErrorsPerRecord,
		Seed:            q.Seed,
		PageNumber:      q.PageNumber,
		Rows:            rows,
		HasMore:         len(rows) > 0,
	})
}

// handleAPIExport proxies a CSV export through the export limiter.
func (s *Server) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	exp, err := s.exporter.Export(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeCSV(w, r, exp)
}

// handleAPIRegions returns the region catalogue.
func (s *Server) handleAPIRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, RegionsResponse{
		Default: s.catalog.Default(),
		Regions: s.catalog.Options(),
	})
}

// handleHealth reports liveness plus a few gauges. A failing dependency
// probe answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":            "ok",
		"views":             s.registry.Len(),
		"downloads_pending": s.downloads.count(),
	}
	if limiter := s.exporter.Limiter(); limiter != nil {
		body["exports"] = limiter.Status()
	}

	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			requestLogger(r).Warn("health check failed", "error", err)
			body["status"] = "degraded"
			body["error"] = err.Error()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, r, body)
			return
		}
	}

	writeJSON(w, r, body)
}
