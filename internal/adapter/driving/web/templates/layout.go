package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the full HTML document with navigation.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := NewWriter(w)
		hw.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		hw.Text(title)
		hw.Raw(`</title><link rel="stylesheet" href="/static/app.css">`,
			`<script src="/static/app.js" defer></script></head><body>`,
			`<header class="topbar"><a class="brand" href="/">envpush</a>`,
			`<nav><a href="/">New run</a><a href="/app/history">History</a></nav></header>`,
			`<main class="container">`)
		if err := hw.Err(); err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		hw.Raw(`</main></body></html>`)
		return hw.Err()
	})
}
