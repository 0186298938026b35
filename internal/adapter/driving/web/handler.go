// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/envpush/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/envpush/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/envpush/internal/application"
	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

const (
	appTitle     = "envpush"
	maxFormBytes = 1 << 20
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	runs         *application.RunRegistry
	history      driven.RunStore
	historyLimit int
	logger       *slog.Logger
}

// NewHandler creates a Handler. history may be nil.
func NewHandler(
	runs *application.RunRegistry,
	history driven.RunStore,
	historyLimit int,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		runs:         runs,
		history:      history,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// Form renders an empty provisioning form.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	form := newFormViewModel(csrfToken(w, r))
	h.render(w, r, http.StatusOK, "form", templates.Layout(appTitle, pages.Form(form)))
}

// StartRun reads the submitted form and starts a run. Validation failures
// re-render the form with the message and start nothing.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	form := formFromRequest(r)
	form.CSRFToken = csrfToken(w, r)

	req, err := provisionRequestFromForm(r, form)
	if err == nil {
		var run *application.Run
		run, err = h.runs.Start(req)
		if err == nil {
			http.Redirect(w, r, "/app/runs/"+run.ID(), http.StatusSeeOther)
			return
		}
	}

	var vErr *application.ValidationError
	if !errors.As(err, &vErr) && !errors.Is(err, application.ErrNoValidItems) && !errors.Is(err, errBadInput) {
		h.logger.Error("failed to start run", "error", err)
	}
	form.Error = strings.TrimPrefix(err.Error(), errBadInput.Error()+": ")
	if kind, ok := model.ParseItemKind(form.Kind); ok && kind == model.ItemKindSecret {
		for i := range form.Rows {
			form.Rows[i].Value = ""
		}
		form.Bulk = ""
	}
	h.render(w, r, http.StatusUnprocessableEntity, "form", templates.Layout(appTitle, pages.Form(form)))
}

// RunPage renders the progress page of a run.
func (h *Handler) RunPage(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.lookup(r.Context(), r.PathValue("id"))
	if !ok {
		h.render(w, r, http.StatusNotFound, "not found", templates.Layout(appTitle, pages.NotFound("This run is unknown or has expired.")))
		return
	}

	view := toRunViewModel(snap, csrfToken(w, r))
	h.render(w, r, http.StatusOK, "run", templates.Layout(view.Title, pages.Run(view)))
}

// RunProgress renders only the progress fragment for polling.
func (h *Handler) RunProgress(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.lookup(r.Context(), r.PathValue("id"))
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.render(w, r, http.StatusOK, "progress", pages.RunProgress(toRunViewModel(snap, "")))
}

// CancelRun requests cancellation and returns to the progress page.
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	if !h.runs.Cancel(id) {
		h.logger.Info("cancel ignored for inactive run", "run_id", id)
	}
	http.Redirect(w, r, "/app/runs/"+id, http.StatusSeeOther)
}

// History renders recent finished runs.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	var runs []model.RunSnapshot
	if h.history != nil {
		var err error
		runs, err = h.history.ListRecent(r.Context(), h.historyLimit)
		if err != nil {
			h.logger.Error("failed to list run history", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.render(w, r, http.StatusOK, "history", templates.Layout("Run history", pages.History(toHistoryViewModel(runs))))
}

// lookup finds a run in the registry, then in history.
func (h *Handler) lookup(ctx context.Context, id string) (model.RunSnapshot, bool) {
	if run, ok := h.runs.Get(id); ok {
		return run.Snapshot(), true
	}
	if h.history == nil {
		return model.RunSnapshot{}, false
	}

	snap, err := h.history.Get(ctx, id)
	if err != nil {
		h.logger.Error("failed to load run", "run_id", id, "error", err)
		return model.RunSnapshot{}, false
	}
	if snap == nil {
		return model.RunSnapshot{}, false
	}
	return *snap, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
	}
}
