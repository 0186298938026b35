package driven

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

var (
	// ErrEnvironmentNotFound is returned by GetEnvironment when the deployment
	// environment does not exist (HTTP 404).
	ErrEnvironmentNotFound = errors.New("environment not found")

	// ErrVariableExists is returned by CreateEnvironmentVariable when a
	// variable with the same name is already defined (HTTP 422).
	ErrVariableExists = errors.New("variable already exists")
)

// APIError carries the status code and server-provided message of a failed
// GitHub API call.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements error.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("github api returned %d: %s", e.StatusCode, msg)
}

// Unwrap returns the underlying transport or client error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// EnvironmentAPI defines the driven port for the GitHub calls a provisioning
// run makes. Implementations are bound to a single access token.
type EnvironmentAPI interface {
	// GetRepositoryID resolves owner/repo to GitHub's numeric repository id.
	GetRepositoryID(ctx context.Context, owner, repo string) (int64, error)

	// GetEnvironment checks that a deployment environment exists.
	// Returns ErrEnvironmentNotFound (possibly wrapped) on 404.
	GetEnvironment(ctx context.Context, owner, repo, env string) error

	// CreateEnvironment creates or updates a deployment environment. It is
	// idempotent.
	CreateEnvironment(ctx context.Context, owner, repo, env string) error

	// GetEnvironmentPublicKey returns the key secrets must be sealed against.
	GetEnvironmentPublicKey(ctx context.Context, repoID int64, env string) (model.PublicKey, error)

	// SetEnvironmentSecret creates or overwrites an environment secret.
	SetEnvironmentSecret(ctx context.Context, repoID int64, env string, secret model.EncryptedSecret) error

	// CreateEnvironmentVariable creates a new environment variable.
	// Returns ErrVariableExists (possibly wrapped) when the name is taken.
	CreateEnvironmentVariable(ctx context.Context, repoID int64, env string, item model.Item) error

	// UpdateEnvironmentVariable overwrites an existing environment variable.
	UpdateEnvironmentVariable(ctx context.Context, repoID int64, env string, item model.Item) error
}
