package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/regions"
	"github.com/JonMunkholm/datatable/internal/table"
)

// HTMXScript is the htmx build loaded by the page.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4"

// htmxConfig swaps error responses too; handlers retarget them to #toast.
// 204 means a stale or ignored result and leaves the page untouched.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"[45]..","swap":true,"error":true}]}`

const styles = `
body{font-family:system-ui,sans-serif;margin:0;padding:1rem 2rem;color:#1f2937}
.controls{display:flex;flex-wrap:wrap;gap:1.5rem;align-items:flex-end;margin-bottom:1rem}
.field{display:flex;flex-direction:column;gap:.25rem}
.field span{font-size:.8rem;color:#6b7280}
#errors,#seed{width:7rem}
table.data{border-collapse:collapse;width:100%}
table.data th,table.data td{border-bottom:1px solid #e5e7eb;padding:.4rem .6rem;text-align:left}
table.data thead th{position:sticky;top:0;background:#f9fafb}
.sentinel td,.empty td{text-align:center;color:#6b7280}
.toast{position:fixed;right:1rem;bottom:1rem;max-width:24rem}
.alert-error{background:#fef2f2;border:1px solid #fca5a5;padding:.75rem;border-radius:.375rem}
.close{background:none;border:0;float:right;cursor:pointer}
.loading{color:#6b7280;margin-bottom:.5rem}
.htmx-indicator{display:none}
.htmx-request.htmx-indicator{display:block}
#rows.htmx-request > tr{display:none}
`

// PageData is the input of Page.
type PageData struct {
	Title    string
	Snapshot table.Snapshot
	Regions  []regions.Region

	// Alert is shown in #toast on first render, e.g. a failed mount fetch.
	Alert *table.UserMessage
}

// Page renders the full document of a freshly mounted view.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		title := data.Title
		if title == "" {
			title = "Fake data generator"
		}
		state := SentinelArmed
		if data.Alert != nil {
			state = SentinelRetry
		}

		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<meta name="htmx-config" content='` + htmxConfig + `'>`)
		w.raw(`<title>`)
		w.text(title)
		w.raw(`</title>`)
		w.raw(`<script src="` + HTMXScript + `"></script>`)
		w.raw(`<style>` + styles + `</style></head><body>`)

		w.raw(`<main id="view"`)
		w.attr("data-view-id", data.Snapshot.ID)
		w.raw(`><h1>`)
		w.text(title)
		w.raw(`</h1>`)
		if w.err != nil {
			return w.err
		}
		if err := Controls(data.Snapshot, data.Regions).Render(ctx, out); err != nil {
			return err
		}
		w.raw(`<div id="loading" class="loading htmx-indicator" role="status">Loading...</div>`)
		if err := Table(data.Snapshot, state).Render(ctx, out); err != nil {
			return err
		}
		w.raw(`</main><div id="toast" class="toast" aria-live="polite">`)
		if data.Alert != nil {
			errorAlert(w, data.Alert.Message, data.Alert.Action, data.Alert.Code)
		}
		w.raw(`</div></body></html>`)
		return w.err
	})
}
