package templates

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/regions"
	"github.com/JonMunkholm/datatable/internal/table"
)

// ViewURL returns the path of a view action, e.g. ViewURL(id, "slider").
func ViewURL(id, action string) string {
	p := "/views/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// Indicator selectors. htmx adds the htmx-request class to each match for
// the duration of a request.
const (
	LoadingIndicator  = "#loading"
	ClearingIndicator = "#loading, #rows"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Controls renders the parameter controls of a view.
func Controls(snap table.Snapshot, options []regions.Region) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		controls(w, snap, options)
		return w.err
	})
}

// ParamsOOB re-renders the linked numeric controls out of band, so a slider
// move updates the input and vice versa.
func ParamsOOB(snap table.Snapshot) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		sliderControl(w, snap, true)
		inputControl(w, snap, true)
		seedControl(w, snap, true)
		return w.err
	})
}

// Parameter requests replace each other and abort a pending page load.
// Every request shows #loading; region and random seed also hide the
// current rows while the new epoch loads.
func controls(w *writer, snap table.Snapshot, options []regions.Region) {
	w.raw(`<div id="controls" class="controls" hx-target="#rows" hx-swap="innerHTML" hx-sync="#view:replace"`)
	w.attr("hx-indicator", LoadingIndicator)
	w.raw(`>`)

	w.raw(`<label class="field"><span>Region</span><select id="region" name="region"`)
	w.attr("hx-post", ViewURL(snap.ID, "region"))
	w.attr("hx-indicator", ClearingIndicator)
	w.raw(` hx-trigger="change">`)
	for _, o := range options {
		w.raw(`<option`)
		w.attr("value", o.Value)
		w.flag("selected", o.Value == snap.Params.Region)
		w.raw(`>`)
		w.text(o.Label)
		w.raw(`</option>`)
	}
	w.raw(`</select></label>`)

	w.raw(`<div class="field"><span>Errors per record</span>`)
	sliderControl(w, snap, false)
	inputControl(w, snap, false)
	w.raw(`</div>`)

	w.raw(`<div class="field"><span>Seed</span>`)
	seedControl(w, snap, false)
	w.raw(`<button type="button" id="random-seed"`)
	w.attr("hx-post", ViewURL(snap.ID, "seed/random"))
	w.attr("hx-indicator", ClearingIndicator)
	w.raw(`>Random</button></div>`)

	w.raw(`<button type="button" id="export" class="export"`)
	w.attr("hx-get", ViewURL(snap.ID, "export"))
	w.raw(` hx-target="#toast" hx-swap="innerHTML" hx-sync="this:drop">Export CSV</button>`)

	w.raw(`</div>`)
}

func sliderControl(w *writer, snap table.Snapshot, oob bool) {
	w.raw(`<input id="slider" name="value" type="range"`)
	w.printf(` min="0" max="%s" step="%s"`, formatFloat(table.SliderMax), formatFloat(table.Step))
	w.attr("value", formatFloat(snap.Params.Slider))
	w.attr("hx-post", ViewURL(snap.ID, "slider"))
	w.raw(` hx-trigger="change"`)
	oobAttrs(w, oob)
	w.raw(`>`)
}

func inputControl(w *writer, snap table.Snapshot, oob bool) {
	w.raw(`<input id="errors" name="value" type="number"`)
	w.printf(` min="0" max="%s" step="%s"`, formatFloat(table.InputMax), formatFloat(table.Step))
	w.attr("value", formatFloat(snap.Params.Input))
	w.attr("hx-post", ViewURL(snap.ID, "input"))
	w.raw(` hx-trigger="input changed delay:300ms"`)
	oobAttrs(w, oob)
	w.raw(`>`)
}

func seedControl(w *writer, snap table.Snapshot, oob bool) {
	w.raw(`<input id="seed" name="value" type="number" min="0" step="1"`)
	w.attr("value", strconv.FormatInt(snap.Params.Seed, 10))
	w.attr("hx-post", ViewURL(snap.ID, "seed"))
	w.raw(` hx-trigger="input changed delay:300ms"`)
	oobAttrs(w, oob)
	w.raw(`>`)
}

func oobAttrs(w *writer, oob bool) {
	if oob {
		w.raw(` hx-swap-oob="true"`)
	}
}
