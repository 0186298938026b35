package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/envpush/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/envpush/internal/adapter/driving/web/viewmodel"
)

// History renders the table of recent finished runs.
func History(h vm.HistoryViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)
		hw.Raw(`<section class="card"><h2>Recent runs</h2>`)

		if len(h.Rows) == 0 {
			hw.Raw(`<p class="muted">No runs yet.</p></section>`)
			return hw.Err()
		}

		hw.Raw(`<table class="history"><thead><tr><th>Started</th><th>Repository</th>`,
			`<th>Environment</th><th>Type</th><th>Items</th><th>Errors</th><th>Status</th><th>Duration</th></tr></thead><tbody>`)
		for _, row := range h.Rows {
			hw.Raw(`<tr`)
			hw.Attr("class", "phase-"+row.Phase)
			hw.Raw(`><td><a`)
			hw.Attr("href", row.DetailPath)
			hw.Raw(`>`)
			hw.Text(row.StartedAgo)
			hw.Raw(`</a></td><td>`)
			hw.Text(row.Repository)
			hw.Raw(`</td><td>`)
			hw.Text(row.Environment)
			hw.Raw(`</td><td>`)
			hw.Text(row.Kind)
			hw.Raw(`</td><td>`)
			hw.Int(row.Items)
			hw.Raw(`</td><td>`)
			hw.Int(row.ErrorCount)
			hw.Raw(`</td><td>`)
			hw.Text(row.Status)
			hw.Raw(`</td><td>`)
			hw.Text(row.Duration)
			hw.Raw(`</td></tr>`)
		}
		hw.Raw(`</tbody></table></section>`)

		return hw.Err()
	})
}
