package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// variablePayload is the request body for the environment variable endpoints.
type variablePayload struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CreateEnvironment creates env in owner/repo, or updates it if it already
// exists. An empty configuration is sent so existing protection rules are
// left untouched.
func (c *Client) CreateEnvironment(ctx context.Context, owner, repo, env string) error {
	_, resp, err := c.gh.Repositories.CreateUpdateEnvironment(ctx, owner, repo, env, &gh.CreateUpdateEnvironment{})
	if err != nil {
		return wrapAPIError(fmt.Sprintf("creating environment %q in %s/%s", env, owner, repo), err)
	}

	logRateLimit(resp, owner+"/"+repo+"/environments")

	return nil
}

// SetEnvironmentSecret creates or overwrites an environment secret in one call.
func (c *Client) SetEnvironmentSecret(ctx context.Context, repoID int64, env string, secret model.EncryptedSecret) error {
	resp, err := c.gh.Actions.CreateOrUpdateEnvSecret(ctx, int(repoID), env, &gh.EncryptedSecret{
		Name:           secret.Name,
		KeyID:          secret.KeyID,
		EncryptedValue: secret.EncryptedValue,
	})
	if err != nil {
		return wrapAPIError(fmt.Sprintf("setting secret %s", secret.Name), err)
	}

	logRateLimit(resp, fmt.Sprintf("repositories/%d/secrets", repoID))

	return nil
}

// CreateEnvironmentVariable creates a new variable. GitHub answers 422 when
// the name is taken; that case is reported as driven.ErrVariableExists.
func (c *Client) CreateEnvironmentVariable(ctx context.Context, repoID int64, env string, item model.Item) error {
	u := fmt.Sprintf("repositories/%d/environments/%s/variables", repoID, url.PathEscape(env))

	req, err := c.gh.NewRequest(http.MethodPost, u, &variablePayload{Name: item.Name, Value: item.Value})
	if err != nil {
		return fmt.Errorf("building create request for variable %s: %w", item.Name, err)
	}

	resp, err := c.gh.Do(ctx, req, nil)
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnprocessableEntity {
			return fmt.Errorf("variable %s: %w", item.Name, driven.ErrVariableExists)
		}
		return wrapAPIError(fmt.Sprintf("creating variable %s", item.Name), err)
	}

	logRateLimit(resp, u)

	return nil
}

// UpdateEnvironmentVariable overwrites an existing variable.
func (c *Client) UpdateEnvironmentVariable(ctx context.Context, repoID int64, env string, item model.Item) error {
	u := fmt.Sprintf("repositories/%d/environments/%s/variables/%s", repoID, url.PathEscape(env), url.PathEscape(item.Name))

	req, err := c.gh.NewRequest(http.MethodPut, u, &variablePayload{Name: item.Name, Value: item.Value})
	if err != nil {
		return fmt.Errorf("building update request for variable %s: %w", item.Name, err)
	}

	resp, err := c.gh.Do(ctx, req, nil)
	if err != nil {
		return wrapAPIError(fmt.Sprintf("updating variable %s", item.Name), err)
	}

	logRateLimit(resp, u)

	return nil
}
