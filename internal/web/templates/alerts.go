package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissable error message with its code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		errorAlert(w, message, action, code)
		return w.err
	})
}

// ToastOOB renders an error alert that replaces the contents of #toast out
// of band, alongside a regular swap.
func ToastOOB(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div id="toast" class="toast" aria-live="polite" hx-swap-oob="true">`)
		errorAlert(w, message, action, code)
		w.raw(`</div>`)
		return w.err
	})
}

func errorAlert(w *writer, message, action, code string) {
	w.raw(`<div class="alert alert-error" role="alert"`)
	w.attr("data-code", code)
	w.raw(`><strong>`)
	w.text(message)
	w.raw(`</strong>`)
	if action != "" {
		w.raw(` <span>`)
		w.text(action)
		w.raw(`</span>`)
	}
	if code != "" {
		w.raw(` <small>(Code: `)
		w.text(code)
		w.raw(`)</small>`)
	}
	w.raw(`<button type="button" class="close" onclick="this.parentElement.remove()">&times;</button></div>`)
}
