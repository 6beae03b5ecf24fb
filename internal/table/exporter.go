package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/datatable/internal/generator"
)

// DefaultExportFileName is the download name of every export.
const DefaultExportFileName = "data.csv"

// CSVSource produces the CSV rendition of a query. *generator.Client
// implements it.
type CSVSource interface {
	ExportCSV(ctx context.Context, q generator.Query) ([]byte, error)
}

// Export is a finished CSV download.
type Export struct {
	FileName string
	Query    generator.Query
	Data     []byte
}

// Exporter proxies CSV exports through a concurrency limiter. It never
// touches view state.
type Exporter struct {
	source   CSVSource
	limiter  *ExportLimiter
	fileName string
	logger   *slog.Logger
}

// NewExporter creates an exporter. A nil limiter means unbounded.
func NewExporter(source CSVSource, limiter *ExportLimiter, fileName string, logger *slog.Logger) *Exporter {
	if fileName == "" {
		fileName = DefaultExportFileName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		source:   source,
		limiter:  limiter,
		fileName: fileName,
		logger:   logger.With("component", "exporter"),
	}
}

// ExportView exports the view's current region, slider value, seed and
// page number.
func (e *Exporter) ExportView(ctx context.Context, v *View) (*Export, error) {
	if v.Closed() {
		return nil, ErrViewClosed
	}
	return e.Export(ctx, v.Snapshot().ExportQuery())
}

// Export fetches the CSV for q.
func (e *Exporter) Export(ctx context.Context, q generator.Query) (*Export, error) {
	if e.limiter != nil {
		if err := e.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, ErrTooManyExports) {
				Exports.WithLabelValues("busy").Inc()
			}
			return nil, err
		}
		defer e.limiter.Release()
	}

	data, err := e.source.ExportCSV(ctx, q)
	if err != nil {
		Exports.WithLabelValues("error").Inc()
		e.logger.Warn("export failed",
			"region", q.Region,
			"page", q.PageNumber,
			"status", generator.StatusCode(err),
			"error", err,
		)
		return nil, fmt.Errorf("export %s page %d: %w", q.Region, q.PageNumber, err)
	}

	Exports.WithLabelValues("ok").Inc()
	e.logger.Info("export completed", "region", q.Region, "page", q.PageNumber, "bytes", len(data))

	return &Export{FileName: e.fileName, Query: q, Data: data}, nil
}

// Limiter returns the export limiter, or nil.
func (e *Exporter) Limiter() *ExportLimiter {
	return e.limiter
}
