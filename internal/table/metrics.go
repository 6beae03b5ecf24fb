package table

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetches tracks fetch outcomes by trigger.
	Fetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatable_fetches_total",
			Help: "Total number of view fetches by trigger and result",
		},
		[]string{"trigger", "result"}, // result: "ok", "error", "superseded", "ignored"
	)

	// ViewsActive tracks mounted views.
	ViewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datatable_views_active",
			Help: "Number of mounted table views",
		},
	)

	// ViewsEvicted counts views removed by idle expiry.
	ViewsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datatable_views_evicted_total",
			Help: "Total number of views evicted after the idle timeout",
		},
	)

	// Exports tracks export outcomes.
	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatable_exports_total",
			Help: "Total number of CSV exports by result",
		},
		[]string{"result"}, // "ok", "error", "busy"
	)

	// ExportsActive tracks exports holding a limiter slot.
	ExportsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datatable_exports_active",
			Help: "Number of CSV exports in progress",
		},
	)

	// ExportsRejected counts exports refused because every slot stayed busy.
	ExportsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datatable_exports_rejected_total",
			Help: "Total number of exports rejected by the concurrency limiter",
		},
	)
)
