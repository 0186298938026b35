package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/envpush/internal/application"
	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// --- Mock implementations ---

type recordingAPI struct {
	variables []model.Item
}

func (a *recordingAPI) GetRepositoryID(context.Context, string, string) (int64, error) {
	return 99, nil
}
func (a *recordingAPI) GetEnvironment(context.Context, string, string, string) error    { return nil }
func (a *recordingAPI) CreateEnvironment(context.Context, string, string, string) error { return nil }
func (a *recordingAPI) GetEnvironmentPublicKey(context.Context, int64, string) (model.PublicKey, error) {
	return model.PublicKey{KeyID: "k", Key: "a2V5"}, nil
}
func (a *recordingAPI) SetEnvironmentSecret(context.Context, int64, string, model.EncryptedSecret) error {
	return nil
}
func (a *recordingAPI) CreateEnvironmentVariable(_ context.Context, _ int64, _ string, item model.Item) error {
	a.variables = append(a.variables, item)
	return nil
}
func (a *recordingAPI) UpdateEnvironmentVariable(context.Context, int64, string, model.Item) error {
	return nil
}

type plainSealer struct{}

func (plainSealer) Seal(_, plaintext string) (string, error) { return plaintext, nil }

type mockRunStore struct {
	runs []model.RunSnapshot
	err  error
}

func (m *mockRunStore) Save(context.Context, model.RunSnapshot) error { return nil }
func (m *mockRunStore) Get(_ context.Context, id string) (*model.RunSnapshot, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, m.err
}
func (m *mockRunStore) ListRecent(context.Context, int) ([]model.RunSnapshot, error) {
	return m.runs, m.err
}

// --- Test helpers ---

const testCSRF = "test-csrf-token"

func setupWeb(t *testing.T, api driven.EnvironmentAPI, store driven.RunStore) (http.Handler, *application.RunRegistry) {
	t.Helper()
	svc := application.NewProvisionService(
		func(string) (driven.EnvironmentAPI, error) { return api, nil },
		plainSealer{}, false, slog.Default(),
	)
	reg, err := application.NewRunRegistry(context.Background(), svc, nil, time.Minute, time.Hour, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		reg.Wait()
		reg.Close()
	})

	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHandler(reg, store, 20, slog.Default()))
	return mux, reg
}

func postForm(mux http.Handler, path string, form url.Values, withCSRF bool) *httptest.ResponseRecorder {
	if withCSRF {
		form.Set("csrf_token", testCSRF)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRF})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func validForm() url.Values {
	return url.Values{
		"token":       {"ghp_abc"},
		"owner":       {"acme"},
		"repo":        {"app"},
		"environment": {"prod"},
		"kind":        {"variables"},
		"item_name":   {"FOO", ""},
		"item_value":  {"bar", ""},
	}
}

// --- Tests ---

func TestForm(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, nil)

	rec := get(mux, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="token"`)
	assert.Contains(t, body, `type="password"`)
	assert.Contains(t, body, `<option value="variables" selected>`)
	assert.Contains(t, body, "<code>repo</code>")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, csrfCookieName, cookies[0].Name)
	assert.Contains(t, body, cookies[0].Value)
}

func TestStartRun_RedirectsToProgress(t *testing.T) {
	api := &recordingAPI{}
	mux, reg := setupWeb(t, api, nil)

	form := validForm()
	form.Set("bulk", "BAZ=qux\n")
	rec := postForm(mux, "/app/runs", form, true)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/app/runs/"))

	reg.Wait()
	assert.Equal(t, []model.Item{{Name: "FOO", Value: "bar"}, {Name: "BAZ", Value: "qux"}}, api.variables)

	page := get(mux, location)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "Creating Variables - app")
	assert.Contains(t, body, "Variable FOO processed successfully")
	assert.Contains(t, body, "4/4")
	assert.NotContains(t, body, "data-poll")
	assert.NotContains(t, body, "ghp_abc")
}

func TestStartRun_RejectsMissingCSRF(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, nil)

	rec := postForm(mux, "/app/runs", validForm(), false)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStartRun_RejectsForeignCSRF(t *testing.T) {
	api := &recordingAPI{}
	mux, _ := setupWeb(t, api, nil)

	t.Run("mismatched form token", func(t *testing.T) {
		form := validForm()
		form.Set("csrf_token", "someone-else")
		req := httptest.NewRequest(http.MethodPost, "/app/runs", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRF})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("header without form field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/app/runs", strings.NewReader(validForm().Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-CSRF-Token", testCSRF)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRF})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	assert.Empty(t, api.variables)
}

func TestStartRun_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantMsg string
	}{
		{
			name:    "missing token",
			mutate:  func(f url.Values) { f.Del("token") },
			wantMsg: "missing required fields: token",
		},
		{
			name: "no valid items",
			mutate: func(f url.Values) {
				f["item_name"] = []string{"FOO"}
				f["item_value"] = []string{"  "}
			},
			wantMsg: application.ErrNoValidItems.Error(),
		},
		{
			name: "bad bulk input",
			mutate: func(f url.Values) {
				f.Set("bulk", "not a pair")
			},
			wantMsg: "bulk input: line 1: expected NAME=value",
		},
		{
			name:    "unknown kind",
			mutate:  func(f url.Values) { f.Set("kind", "keys") },
			wantMsg: `unknown type &#34;keys&#34;`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &recordingAPI{}
			mux, _ := setupWeb(t, api, nil)
			form := validForm()
			tt.mutate(form)

			rec := postForm(mux, "/app/runs", form, true)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, tt.wantMsg)
			assert.Contains(t, body, `value="acme"`, "entered fields are kept")
			assert.NotContains(t, body, "ghp_abc", "token is never echoed")
			assert.Empty(t, api.variables)
		})
	}
}

func TestStartRun_SecretValuesNotEchoed(t *testing.T) {
	for _, kind := range []string{"secrets", "secret"} {
		t.Run(kind, func(t *testing.T) {
			mux, _ := setupWeb(t, &recordingAPI{}, nil)
			form := validForm()
			form.Set("kind", kind)
			form.Set("bulk", "DB_PASSWORD=hunter2-super-secret")
			form.Del("owner")

			rec := postForm(mux, "/app/runs", form, true)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, `value="FOO"`)
			assert.NotContains(t, body, `value="bar"`)
			assert.NotContains(t, body, "hunter2-super-secret")
		})
	}
}

func TestStartRun_VariableBulkKeptOnError(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, nil)
	form := validForm()
	form.Set("bulk", "REGION=eu-west-1")
	form.Del("owner")

	rec := postForm(mux, "/app/runs", form, true)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "REGION=eu-west-1")
}

func TestRunProgress(t *testing.T) {
	mux, reg := setupWeb(t, &recordingAPI{}, nil)
	rec := postForm(mux, "/app/runs", validForm(), true)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	reg.Wait()

	frag := get(mux, rec.Header().Get("Location")+"/progress")

	require.Equal(t, http.StatusOK, frag.Code)
	body := frag.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div id="progress"`))
	assert.Contains(t, body, `data-phase="completed"`)
	assert.Contains(t, body, `class="entry entry-success"`)
	assert.Equal(t, "no-store", frag.Header().Get("Cache-Control"))
}

func TestRunPage_FromHistory(t *testing.T) {
	store := &mockRunStore{runs: []model.RunSnapshot{{
		ID: "old", Owner: "acme", Repo: "app", Environment: "prod", Kind: model.ItemKindSecret,
		Progress: model.ProgressState{Current: 3, Total: 3, Status: "Completed with 1 error(s)", Phase: model.RunPhaseCompleted},
		Entries:  []model.ResultEntry{{Kind: model.ResultError, Message: "Failed to set secret A: <denied>"}},
	}}}
	mux, _ := setupWeb(t, &recordingAPI{}, store)

	rec := get(mux, "/app/runs/old")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Creating Secrets - app")
	assert.Contains(t, body, "Failed to set secret A: &lt;denied&gt;")
	assert.Contains(t, body, "1 error(s) occurred")
}

func TestRunPage_NotFound(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, &mockRunStore{})

	assert.Equal(t, http.StatusNotFound, get(mux, "/app/runs/missing").Code)
	assert.Equal(t, http.StatusNotFound, get(mux, "/app/runs/missing/progress").Code)
}

func TestCancelRun(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, nil)

	assert.Equal(t, http.StatusForbidden, postForm(mux, "/app/runs/abc/cancel", url.Values{}, false).Code)

	rec := postForm(mux, "/app/runs/abc/cancel", url.Values{}, true)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app/runs/abc", rec.Header().Get("Location"))
}

func TestHistory(t *testing.T) {
	started := time.Now().Add(-2 * time.Hour)
	store := &mockRunStore{runs: []model.RunSnapshot{{
		ID: "r1", Owner: "acme", Repo: "app", Environment: "prod", Kind: model.ItemKindVariable,
		Progress:   model.ProgressState{Current: 5, Total: 5, Status: "Completed", Phase: model.RunPhaseCompleted},
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}}}
	mux, _ := setupWeb(t, &recordingAPI{}, store)

	rec := get(mux, "/app/history")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/app/runs/r1"`)
	assert.Contains(t, body, "2 hours ago")
	assert.Contains(t, body, "<td>3</td>")
	assert.Contains(t, body, "1.5s")
}

func TestHistory_Empty(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, nil)

	rec := get(mux, "/app/history")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No runs yet.")
}

func TestHistory_StoreError(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, &mockRunStore{err: errors.New("db fail")})

	assert.Equal(t, http.StatusInternalServerError, get(mux, "/app/history").Code)
}

func TestStaticAssets(t *testing.T) {
	mux, _ := setupWeb(t, &recordingAPI{}, nil)

	rec := get(mux, "/static/app.js")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data-poll")
}
