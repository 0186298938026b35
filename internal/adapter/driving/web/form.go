package web

import (
	"errors"
	"fmt"
	"net/http"

	vm "github.com/ericfisherdev/envpush/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/envpush/internal/application"
	"github.com/ericfisherdev/envpush/internal/domain/model"
)

// errBadInput marks form input that cannot be turned into a request at all.
var errBadInput = errors.New("invalid input")

// formFromRequest captures the submitted fields for re-rendering. Rows are
// paired by position; a trailing unmatched name or value is kept as a row.
func formFromRequest(r *http.Request) vm.FormViewModel {
	names := r.PostForm["item_name"]
	values := r.PostForm["item_value"]

	rows := make([]vm.ItemRow, 0, max(len(names), len(values)))
	for i := 0; i < max(len(names), len(values)); i++ {
		var row vm.ItemRow
		if i < len(names) {
			row.Name = names[i]
		}
		if i < len(values) {
			row.Value = values[i]
		}
		rows = append(rows, row)
	}

	bulkFormat := r.PostFormValue("bulk_format")
	if bulkFormat == "" {
		bulkFormat = string(application.BulkFormatDotenv)
	}

	return vm.FormViewModel{
		Owner:       r.PostFormValue("owner"),
		Repo:        r.PostFormValue("repo"),
		Environment: r.PostFormValue("environment"),
		Kind:        r.PostFormValue("kind"),
		Rows:        rows,
		Bulk:        r.PostFormValue("bulk"),
		BulkFormat:  bulkFormat,
		HelpHTML:    scopeHelpHTML,
	}
}

// provisionRequestFromForm builds the run request. Bulk items follow the
// row items.
func provisionRequestFromForm(r *http.Request, form vm.FormViewModel) (model.ProvisionRequest, error) {
	kind, ok := model.ParseItemKind(form.Kind)
	if !ok {
		return model.ProvisionRequest{}, fmt.Errorf("%w: unknown type %q", errBadInput, form.Kind)
	}

	items := make([]model.Item, 0, len(form.Rows))
	for _, row := range form.Rows {
		items = append(items, model.Item{Name: row.Name, Value: row.Value})
	}

	bulk, err := application.ParseBulkItems(application.BulkFormat(form.BulkFormat), form.Bulk)
	if err != nil {
		return model.ProvisionRequest{}, fmt.Errorf("%w: bulk input: %s", errBadInput, err)
	}
	items = append(items, bulk...)

	return model.ProvisionRequest{
		Params: model.ConnectionParams{
			Token:       r.PostFormValue("token"),
			Owner:       form.Owner,
			Repo:        form.Repo,
			Environment: form.Environment,
			Kind:        kind,
		},
		Items: items,
	}, nil
}
