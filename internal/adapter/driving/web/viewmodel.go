package web

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	vm "github.com/ericfisherdev/envpush/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/envpush/internal/domain/model"
)

func newFormViewModel(csrf string) vm.FormViewModel {
	return vm.FormViewModel{
		CSRFToken:  csrf,
		Kind:       string(model.ItemKindVariable),
		Rows:       []vm.ItemRow{{}},
		BulkFormat: "dotenv",
		HelpHTML:   scopeHelpHTML,
	}
}

// toRunViewModel converts a run snapshot into the progress view.
func toRunViewModel(s model.RunSnapshot, csrf string) vm.RunViewModel {
	kindPlural := "Variables"
	if s.Kind == model.ItemKindSecret {
		kindPlural = "Secrets"
	}

	entries := make([]vm.EntryViewModel, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, vm.EntryViewModel{
			Kind:    string(e.Kind),
			Message: e.Message,
			Time:    e.At.Format("15:04:05"),
		})
	}

	return vm.RunViewModel{
		ID:           s.ID,
		Title:        fmt.Sprintf("Creating %s - %s", kindPlural, s.Repo),
		Repository:   s.Owner + "/" + s.Repo,
		Environment:  s.Environment,
		KindTitle:    kindPlural,
		Status:       s.Progress.Status,
		Phase:        string(s.Progress.Phase),
		Current:      s.Progress.Current,
		Total:        s.Progress.Total,
		Percent:      s.Progress.Percent(),
		ErrorCount:   s.ErrorCount(),
		Terminal:     s.Progress.Phase.Terminal(),
		Entries:      entries,
		CSRFToken:    csrf,
		ProgressPath: "/app/runs/" + s.ID + "/progress",
		CancelPath:   "/app/runs/" + s.ID + "/cancel",
	}
}

// toHistoryViewModel converts stored runs into history rows.
func toHistoryViewModel(runs []model.RunSnapshot) vm.HistoryViewModel {
	rows := make([]vm.HistoryRowViewModel, 0, len(runs))
	for _, s := range runs {
		items := s.Progress.Total - 2
		if items < 0 {
			items = 0
		}

		duration := ""
		if !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
			duration = s.FinishedAt.Sub(s.StartedAt).Round(10 * time.Millisecond).String()
		}

		rows = append(rows, vm.HistoryRowViewModel{
			ID:          s.ID,
			Repository:  s.Owner + "/" + s.Repo,
			Environment: s.Environment,
			Kind:        s.Kind.Title(),
			Phase:       string(s.Progress.Phase),
			Status:      s.Progress.Status,
			Items:       items,
			ErrorCount:  s.ErrorCount(),
			StartedAgo:  humanize.Time(s.StartedAt),
			Duration:    duration,
			DetailPath:  "/app/runs/" + s.ID,
		})
	}
	return vm.HistoryViewModel{Rows: rows}
}
