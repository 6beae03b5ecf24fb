// Package web provides HTTP handlers for the data table.
// This file contains shared utilities and helper functions used across handlers.
package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/generator"
	"github.com/JonMunkholm/datatable/internal/table"
)

// parsePage parses the required page query parameter.
func parsePage(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	page, err := strconv.Atoi(raw)
	if err != nil || page < generator.FirstPage {
		return 0, fmt.Errorf("%w: page %q", table.ErrInvalidParam, raw)
	}
	return page, nil
}

// parseQuery reads a generator query from URL parameters and checks the
// region against the catalogue.
func (s *Server) parseQuery(v url.Values) (generator.Query, error) {
	q, err := generator.ParseQuery(v)
	if err != nil {
		return generator.Query{}, fmt.Errorf("%w: %v", table.ErrInvalidParam, err)
	}
	if !s.catalog.Contains(q.Region) {
		return generator.Query{}, fmt.Errorf("%w: unknown region %q", table.ErrInvalidParam, q.Region)
	}
	return q, nil
}

// render writes HTML components in order. Errors after the header is sent
// can only be logged.
func render(w http.ResponseWriter, r *http.Request, status int, components ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, c := range components {
		if err := c.Render(r.Context(), w); err != nil {
			requestLogger(r).Warn("render failed", "error", err)
			return
		}
	}
}

// writeCSV sends an export as a file attachment.
func writeCSV(w http.ResponseWriter, r *http.Request, exp *table.Export) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exp.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(exp.Data); err != nil {
		requestLogger(r).Warn("csv write failed", "error", err)
	}
}
