// Package templates holds the HTML components of the data table UI.
//
// Components are plain templ.Components; each renders one fragment that
// HTMX swaps into the page. Element ids are part of the contract with the
// handlers:
//
//	#view      the mounted view; hx-sync target for every request
//	#controls  region, slider, input, seed and export controls
//	#rows      table body: rows followed by the scroll sentinel
//	#sentinel  the infinite-scroll trigger row
//	#toast     error alerts
package templates

import (
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

// text writes s HTML-escaped. Safe inside double-quoted attributes.
func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// attr writes ` name="value"` with the value escaped.
func (w *writer) attr(name, value string) {
	w.raw(" " + name + `="`)
	w.text(value)
	w.raw(`"`)
}

// flag writes a boolean attribute when on is true.
func (w *writer) flag(name string, on bool) {
	if on {
		w.raw(" " + name)
	}
}
