// Package pages contains the page-level components of the web GUI.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/envpush/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/envpush/internal/adapter/driving/web/viewmodel"
)

// Form renders the provisioning form.
func Form(f vm.FormViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)

		hw.Raw(`<section class="card help"><h2>Required GitHub token scopes</h2>`)
		hw.Raw(f.HelpHTML)
		hw.Raw(`</section>`)

		hw.Raw(`<form class="card" method="post" action="/app/runs" id="provision-form">`)
		hw.Raw(`<input type="hidden" name="csrf_token"`)
		hw.Attr("value", f.CSRFToken)
		hw.Raw(`>`)

		if f.Error != "" {
			hw.Raw(`<div class="alert alert-error" role="alert">`)
			hw.Text(f.Error)
			hw.Raw(`</div>`)
		}

		hw.Raw(`<div class="grid">`,
			`<label class="span-2">Personal Access Token *`,
			`<input type="password" name="token" placeholder="ghp_..." autocomplete="off" required></label>`)
		textField(hw, "Repository Owner *", "owner", f.Owner, "username or organization")
		textField(hw, "Repository Name *", "repo", f.Repo, "repository-name")
		textField(hw, "Environment Name *", "environment", f.Environment, "production, staging, etc.")

		hw.Raw(`<label>Type *<select name="kind" id="kind">`)
		option(hw, "variables", "Variables", f.Kind)
		option(hw, "secrets", "Secrets", f.Kind)
		hw.Raw(`</select></label></div>`)

		hw.Raw(`<fieldset><legend>Items *</legend><div id="rows">`)
		rows := f.Rows
		if len(rows) == 0 {
			rows = []vm.ItemRow{{}}
		}
		for _, row := range rows {
			hw.Raw(`<div class="row"><input type="text" name="item_name" placeholder="Key name"`)
			hw.Attr("value", row.Name)
			hw.Raw(`><input type="text" name="item_value" placeholder="Value"`)
			hw.Attr("value", row.Value)
			hw.Raw(`><button type="button" class="remove-row" aria-label="Remove item">&times;</button></div>`)
		}
		hw.Raw(`</div><button type="button" id="add-row">Add Item</button></fieldset>`)

		hw.Raw(`<details class="bulk"`)
		if f.Bulk != "" {
			hw.Raw(` open`)
		}
		hw.Raw(`><summary>Paste many items</summary><label>Format <select name="bulk_format">`)
		option(hw, "dotenv", "dotenv (NAME=value)", f.BulkFormat)
		option(hw, "yaml", "YAML", f.BulkFormat)
		hw.Raw(`</select></label><textarea name="bulk" rows="8" placeholder="API_URL=https://example.com">`)
		hw.Text(f.Bulk)
		hw.Raw(`</textarea></details>`)

		hw.Raw(`<div class="actions"><button type="submit" class="primary">Create</button>`,
			`<a class="button" href="/">Clear</a></div></form>`)

		return hw.Err()
	})
}

func textField(hw *templates.Writer, label, name, value, placeholder string) {
	hw.Raw(`<label>`)
	hw.Text(label)
	hw.Raw(`<input type="text" required`)
	hw.Attr("name", name)
	hw.Attr("value", value)
	hw.Attr("placeholder", placeholder)
	hw.Raw(`></label>`)
}

func option(hw *templates.Writer, value, label, selected string) {
	hw.Raw(`<option`)
	hw.Attr("value", value)
	if value == selected {
		hw.Raw(` selected`)
	}
	hw.Raw(`>`)
	hw.Text(label)
	hw.Raw(`</option>`)
}
