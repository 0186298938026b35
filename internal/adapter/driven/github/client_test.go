package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/envpush/internal/adapter/driven/github"
	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", "test-token")
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGetRepositoryID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/app", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 123456, "full_name": "acme/app"})
	})

	client := newTestClient(t, mux)
	id, err := client.GetRepositoryID(context.Background(), "acme", "app")

	require.NoError(t, err)
	assert.Equal(t, int64(123456), id)
}

func TestGetRepositoryID_NotFoundCarriesServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/missing", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})

	client := newTestClient(t, mux)
	_, err := client.GetRepositoryID(context.Background(), "acme", "missing")

	require.Error(t, err)
	var apiErr *driven.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Not Found", apiErr.Message)
	assert.Contains(t, err.Error(), "fetching repository acme/missing")
}

func TestGetEnvironment_Exists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/app/environments/prod", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 1, "name": "prod"})
	})

	client := newTestClient(t, mux)
	err := client.GetEnvironment(context.Background(), "acme", "app", "prod")

	assert.NoError(t, err)
}

func TestGetEnvironment_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/app/environments/prod", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})

	client := newTestClient(t, mux)
	err := client.GetEnvironment(context.Background(), "acme", "app", "prod")

	require.Error(t, err)
	assert.True(t, errors.Is(err, driven.ErrEnvironmentNotFound))
}

func TestGetEnvironment_ForbiddenIsNotNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/app/environments/prod", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]any{"message": "Resource not accessible by personal access token"})
	})

	client := newTestClient(t, mux)
	err := client.GetEnvironment(context.Background(), "acme", "app", "prod")

	require.Error(t, err)
	assert.False(t, errors.Is(err, driven.ErrEnvironmentNotFound))

	var apiErr *driven.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Resource not accessible by personal access token", apiErr.Message)
}

func TestCreateEnvironment(t *testing.T) {
	var called bool
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/acme/app/environments/prod", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 7, "name": "prod"})
	})

	client := newTestClient(t, mux)
	err := client.CreateEnvironment(context.Background(), "acme", "app", "prod")

	require.NoError(t, err)
	assert.True(t, called)
}

func TestGetEnvironmentPublicKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repositories/42/environments/prod/secrets/public-key", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"key_id": "568250167242549743",
			"key":    "hBT5WZEj8ZoOv6TYJsfWq7MxTEQopZO5/IT3ZCVQPzs=",
		})
	})

	client := newTestClient(t, mux)
	key, err := client.GetEnvironmentPublicKey(context.Background(), 42, "prod")

	require.NoError(t, err)
	assert.Equal(t, model.PublicKey{
		KeyID: "568250167242549743",
		Key:   "hBT5WZEj8ZoOv6TYJsfWq7MxTEQopZO5/IT3ZCVQPzs=",
	}, key)
}

func TestGetEnvironmentPublicKey_BypassesCache(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repositories/42/environments/prod/secrets/public-key", func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Header().Set("Cache-Control", "private, max-age=60")
		w.Header().Set("ETag", `"k1"`)
		writeJSON(t, w, http.StatusOK, map[string]any{"key_id": "1", "key": "a2V5"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cached := &http.Client{Transport: httpcache.NewMemoryCacheTransport()}
	client, err := ghAdapter.NewClientWithHTTPClient(cached, server.URL+"/", "test-token")
	require.NoError(t, err)

	for range 2 {
		_, err := client.GetEnvironmentPublicKey(context.Background(), 42, "prod")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, hits)
}

func TestGetEnvironmentPublicKey_Incomplete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repositories/42/environments/prod/secrets/public-key", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"key_id": "1"})
	})

	client := newTestClient(t, mux)
	_, err := client.GetEnvironmentPublicKey(context.Background(), 42, "prod")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestSetEnvironmentSecret(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repositories/42/environments/prod/secrets/API_KEY", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	})

	client := newTestClient(t, mux)
	err := client.SetEnvironmentSecret(context.Background(), 42, "prod", model.EncryptedSecret{
		Name:           "API_KEY",
		KeyID:          "kid",
		EncryptedValue: "c2VhbGVk",
	})

	require.NoError(t, err)
	assert.Equal(t, "kid", body["key_id"])
	assert.Equal(t, "c2VhbGVk", body["encrypted_value"])
}

func TestCreateEnvironmentVariable(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repositories/42/environments/prod/variables", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	})

	client := newTestClient(t, mux)
	err := client.CreateEnvironmentVariable(context.Background(), 42, "prod", model.Item{Name: "FOO", Value: "bar"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "FOO", "value": "bar"}, body)
}

func TestCreateEnvironmentVariable_AlreadyExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repositories/42/environments/prod/variables", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{"message": "Already exists - Variable already exists"})
	})

	client := newTestClient(t, mux)
	err := client.CreateEnvironmentVariable(context.Background(), 42, "prod", model.Item{Name: "FOO", Value: "bar"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, driven.ErrVariableExists))
}

func TestCreateEnvironmentVariable_OtherFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repositories/42/environments/prod/variables", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]any{"message": "Must have admin rights to Repository."})
	})

	client := newTestClient(t, mux)
	err := client.CreateEnvironmentVariable(context.Background(), 42, "prod", model.Item{Name: "FOO", Value: "bar"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, driven.ErrVariableExists))

	var apiErr *driven.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestUpdateEnvironmentVariable(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repositories/42/environments/prod/variables/FOO", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, mux)
	err := client.UpdateEnvironmentVariable(context.Background(), 42, "prod", model.Item{Name: "FOO", Value: "baz"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "FOO", "value": "baz"}, body)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client, err := ghAdapter.NewClient("token", "", 0)

	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := ghAdapter.NewClient("token", "://bad", 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing base URL")
}

func TestNewClientFactory(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/app", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id": 5}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	factory := ghAdapter.NewClientFactory(srv.URL, time.Second)
	api, err := factory("tok-1")
	require.NoError(t, err)

	id, err := api.GetRepositoryID(context.Background(), "acme", "app")
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}
