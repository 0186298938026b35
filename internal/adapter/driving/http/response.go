package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CreateRunRequest is the JSON body for starting a run. Kind accepts
// "secrets" or "variables" (singular forms too) and defaults to variables.
type CreateRunRequest struct {
	Token       string        `json:"token"`
	Owner       string        `json:"owner"`
	Repo        string        `json:"repo"`
	Environment string        `json:"environment"`
	Kind        string        `json:"kind"`
	Items       []ItemRequest `json:"items"`
}

// ItemRequest is one name/value pair in a CreateRunRequest.
type ItemRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProgressResponse is the JSON representation of a run's progress.
type ProgressResponse struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
	Phase   string `json:"phase"`
}

// EntryResponse is one line of the result log.
type EntryResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	At      string `json:"at"`
}

// RunResponse is the JSON representation of a run snapshot.
type RunResponse struct {
	ID           string           `json:"id"`
	Owner        string           `json:"owner"`
	Repo         string           `json:"repo"`
	Environment  string           `json:"environment"`
	Kind         string           `json:"kind"`
	RepositoryID int64            `json:"repository_id,omitempty"`
	Progress     ProgressResponse `json:"progress"`
	Entries      []EntryResponse  `json:"entries"`
	ErrorCount   int              `json:"error_count"`
	StartedAt    string           `json:"started_at,omitempty"`
	FinishedAt   string           `json:"finished_at,omitempty"`
}

// RunSummaryResponse is a history row without the result log.
type RunSummaryResponse struct {
	ID          string `json:"id"`
	Repository  string `json:"repository"`
	Environment string `json:"environment"`
	Kind        string `json:"kind"`
	Phase       string `json:"phase"`
	Status      string `json:"status"`
	Items       int    `json:"items"`
	ErrorCount  int    `json:"error_count"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at"`
}

// CancelResponse acknowledges a cancellation request.
type CancelResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toRunResponse converts a snapshot to its JSON representation. Entries is
// always a non-nil slice.
func toRunResponse(s model.RunSnapshot) RunResponse {
	entries := make([]EntryResponse, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, EntryResponse{
			Kind:    string(e.Kind),
			Message: e.Message,
			At:      formatTime(e.At),
		})
	}

	return RunResponse{
		ID:           s.ID,
		Owner:        s.Owner,
		Repo:         s.Repo,
		Environment:  s.Environment,
		Kind:         string(s.Kind),
		RepositoryID: s.RepositoryID,
		Progress: ProgressResponse{
			Current: s.Progress.Current,
			Total:   s.Progress.Total,
			Percent: s.Progress.Percent(),
			Status:  s.Progress.Status,
			Phase:   string(s.Progress.Phase),
		},
		Entries:    entries,
		ErrorCount: s.ErrorCount(),
		StartedAt:  formatTime(s.StartedAt),
		FinishedAt: formatTime(s.FinishedAt),
	}
}

func toRunSummaryResponse(s model.RunSnapshot) RunSummaryResponse {
	items := s.Progress.Total - 2
	if items < 0 {
		items = 0
	}

	return RunSummaryResponse{
		ID:          s.ID,
		Repository:  s.Owner + "/" + s.Repo,
		Environment: s.Environment,
		Kind:        string(s.Kind),
		Phase:       string(s.Progress.Phase),
		Status:      s.Progress.Status,
		Items:       items,
		ErrorCount:  s.ErrorCount(),
		StartedAt:   formatTime(s.StartedAt),
		FinishedAt:  formatTime(s.FinishedAt),
	}
}
