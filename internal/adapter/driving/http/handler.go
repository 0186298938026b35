// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/envpush/internal/application"
	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// maxRequestBytes caps the size of a run request body.
const maxRequestBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	runs         *application.RunRegistry
	history      driven.RunStore
	historyLimit int
	logger       *slog.Logger
}

// NewHandler creates a Handler. history may be nil, in which case finished
// runs are only reachable while they stay in the registry.
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

// RegisterAPIRoutes registers the JSON API and the metrics endpoint on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/v1/runs", h.CreateRun)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("POST /api/v1/runs/{id}/cancel", h.CancelRun)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// CreateRun validates the request and starts a run in the background. The
// response carries the initial snapshot; clients poll GetRun for progress.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, ok := model.ParseItemKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be secrets or variables")
		return
	}

	items := make([]model.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.Item{Name: it.Name, Value: it.Value})
	}

	run, err := h.runs.Start(model.ProvisionRequest{
		Params: model.ConnectionParams{
			Token:       req.Token,
			Owner:       req.Owner,
			Repo:        req.Repo,
			Environment: req.Environment,
			Kind:        kind,
		},
		Items: items,
	})
	if err != nil {
		var vErr *application.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, application.ErrNoValidItems) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to start run", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusAccepted, toRunResponse(run.Snapshot()))
}

// GetRun returns the current snapshot of a run. Runs that have left the
// in-memory registry are served from history.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if run, ok := h.runs.Get(id); ok {
		writeJSON(w, http.StatusOK, toRunResponse(run.Snapshot()))
		return
	}

	if h.history != nil {
		snap, err := h.history.Get(r.Context(), id)
		if err != nil {
			h.logger.Error("failed to load run", "run_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if snap != nil {
			writeJSON(w, http.StatusOK, toRunResponse(*snap))
			return
		}
	}

	writeError(w, http.StatusNotFound, "run not found")
}

// CancelRun requests cancellation of an in-flight run.
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if h.runs.Cancel(id) {
		writeJSON(w, http.StatusAccepted, CancelResponse{ID: id, Status: "cancel requested"})
		return
	}

	if _, ok := h.runs.Get(id); ok {
		writeError(w, http.StatusConflict, "run already finished")
		return
	}
	writeError(w, http.StatusNotFound, "run not found")
}

// ListRuns returns recent finished runs from history, newest first. An
// optional ?limit= lowers the configured maximum.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, []RunSummaryResponse{})
		return
	}

	limit := h.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, h.historyLimit)
	}

	runs, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RunSummaryResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunSummaryResponse(run))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
