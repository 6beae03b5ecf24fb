package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/generator"
	"github.com/JonMunkholm/datatable/internal/table"
)

// SentinelState selects how the scroll sentinel re-arms.
type SentinelState int

const (
	// SentinelArmed loads the next page when scrolled into view.
	SentinelArmed SentinelState = iota
	// SentinelRetry follows a failed fetch and waits for a click, so a
	// persistent upstream failure does not turn into a request loop.
	SentinelRetry
)

// Table renders the full table with its body.
func Table(snap table.Snapshot, state SentinelState) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<table class="data"><thead><tr>`)
		for _, c := range generator.Columns {
			w.raw(`<th>`)
			w.text(c)
			w.raw(`</th>`)
		}
		w.raw(`</tr></thead><tbody id="rows">`)
		tableBody(w, snap, state)
		w.raw(`</tbody></table>`)
		return w.err
	})
}

// TableBody renders the contents of #rows: every row of the view followed
// by the sentinel.
func TableBody(snap table.Snapshot, state SentinelState) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		tableBody(w, snap, state)
		return w.err
	})
}

// RowsChunk renders rows appended by a page advance, followed by the
// re-armed sentinel that replaces the old one.
func RowsChunk(snap table.Snapshot) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		rows(w, snap.Appended, len(snap.Rows)-len(snap.Appended))
		sentinel(w, snap, SentinelArmed)
		return w.err
	})
}

// Sentinel renders only the sentinel row.
func Sentinel(snap table.Snapshot, state SentinelState) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		sentinel(w, snap, state)
		return w.err
	})
}

func tableBody(w *writer, snap table.Snapshot, state SentinelState) {
	rows(w, snap.Rows, 0)
	if len(snap.Rows) == 0 && !snap.HasMore {
		w.printf(`<tr class="empty"><td colspan="%d">No rows</td></tr>`, len(generator.Columns))
		return
	}
	sentinel(w, snap, state)
}

func rows(w *writer, rs []generator.Row, offset int) {
	for i, r := range rs {
		w.raw(`<tr`)
		w.attr("data-key", r.Key(offset+i))
		w.raw(`>`)
		for _, v := range r.Record() {
			w.raw(`<td>`)
			w.text(v)
			w.raw(`</td>`)
		}
		w.raw(`</tr>`)
	}
}

// The sentinel exists only while more pages may follow. Page requests are
// dropped while a parameter change is in flight.
func sentinel(w *writer, snap table.Snapshot, state SentinelState) {
	if !snap.HasMore {
		return
	}
	w.raw(`<tr id="sentinel" class="sentinel"`)
	w.attr("hx-get", ViewURL(snap.ID, "rows")+"?page="+strconv.Itoa(snap.NextPage()))
	if state == SentinelRetry {
		w.raw(` hx-trigger="click"`)
	} else {
		w.raw(` hx-trigger="revealed"`)
	}
	w.raw(` hx-target="this" hx-swap="outerHTML" hx-sync="#view:drop">`)
	w.printf(`<td colspan="%d">`, len(generator.Columns))
	if state == SentinelRetry {
		w.raw(`<button type="button" class="retry">Retry</button>`)
	} else {
		w.raw(`Loading...`)
	}
	w.raw(`</td></tr>`)
}
