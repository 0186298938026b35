package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/envpush/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/envpush/internal/adapter/driving/web/viewmodel"
)

// Run renders the progress page of a run. The progress panel polls its
// fragment endpoint until the run reaches a terminal phase.
func Run(r vm.RunViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)
		hw.Raw(`<section class="card"><h2>`)
		hw.Text(r.Title)
		hw.Raw(`</h2><p class="muted">`)
		hw.Text(r.Repository)
		hw.Raw(` &middot; environment `)
		hw.Text(r.Environment)
		hw.Raw(`</p>`)
		if err := hw.Err(); err != nil {
			return err
		}

		if err := RunProgress(r).Render(ctx, w); err != nil {
			return err
		}

		hw.Raw(`<div class="actions">`)
		if !r.Terminal {
			hw.Raw(`<form method="post"`)
			hw.Attr("action", r.CancelPath)
			hw.Raw(`><input type="hidden" name="csrf_token"`)
			hw.Attr("value", r.CSRFToken)
			hw.Raw(`><button type="submit" class="danger">Cancel</button></form>`)
		}
		hw.Raw(`<a class="button" href="/">Start new</a></div></section>`)
		return hw.Err()
	})
}

// RunProgress renders the polled progress fragment: status, counter, bar and
// result log.
func RunProgress(r vm.RunViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)

		hw.Raw(`<div id="progress"`)
		hw.Attr("data-phase", r.Phase)
		if !r.Terminal {
			hw.Attr("data-poll", r.ProgressPath)
		}
		hw.Raw(`><div class="progress-head"><span class="status">`)
		hw.Text(r.Status)
		hw.Raw(`</span><span class="counter">`)
		hw.Int(r.Current)
		hw.Raw(`/`)
		hw.Int(r.Total)
		hw.Raw(`</span></div><div class="bar"><div class="fill" style="width: `)
		hw.Int(r.Percent)
		hw.Raw(`%"></div></div>`)
		if r.Percent > 0 {
			hw.Raw(`<div class="percent">`)
			hw.Int(r.Percent)
			hw.Raw(`% Complete</div>`)
		}

		hw.Raw(`<ul class="results">`)
		for _, e := range r.Entries {
			hw.Raw(`<li`)
			hw.Attr("class", "entry entry-"+e.Kind)
			hw.Raw(`><time>`)
			hw.Text(e.Time)
			hw.Raw(`</time> `)
			hw.Text(e.Message)
			hw.Raw(`</li>`)
		}
		hw.Raw(`</ul>`)

		if r.Terminal && r.ErrorCount > 0 {
			hw.Raw(`<p class="alert alert-error">`)
			hw.Int(r.ErrorCount)
			hw.Raw(` error(s) occurred</p>`)
		}
		hw.Raw(`</div>`)

		return hw.Err()
	})
}

// NotFound renders the body shown for unknown or expired run ids.
func NotFound(message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)
		hw.Raw(`<section class="card"><h2>Not found</h2><p>`)
		hw.Text(message)
		hw.Raw(`</p><a class="button" href="/">Start new</a></section>`)
		return hw.Err()
	})
}
