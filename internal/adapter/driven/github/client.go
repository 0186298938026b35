// Package github implements the EnvironmentAPI port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EnvironmentAPI = (*Client)(nil)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com/"

// Client implements the driven.EnvironmentAPI port for a single access token.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. http.Client with the given per-request timeout
//  3. go-github (GitHub REST API client with bearer auth)
//
// baseURL may point at a GitHub Enterprise Server REST root; an empty value
// selects DefaultBaseURL.
func NewClient(token, baseURL string, timeout time.Duration) (*Client, error) {
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   timeout,
	}

	client := gh.NewClient(httpClient).WithAuthToken(token)
	if err := setBaseURL(client, baseURL); err != nil {
		return nil, err
	}

	return &Client{gh: client}, nil
}

// NewClientFactory returns a constructor that builds a fresh Client for each
// token, all pointing at baseURL with the same timeout.
func NewClientFactory(baseURL string, timeout time.Duration) func(token string) (driven.EnvironmentAPI, error) {
	return func(token string) (driven.EnvironmentAPI, error) {
		return NewClient(token, baseURL, timeout)
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	client := gh.NewClient(httpClient).WithAuthToken(token)
	if err := setBaseURL(client, baseURL); err != nil {
		return nil, err
	}

	return &Client{gh: client}, nil
}

func setBaseURL(client *gh.Client, baseURL string) error {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u
	return nil
}

// GetRepositoryID resolves owner/repo to its numeric repository id.
func (c *Client) GetRepositoryID(ctx context.Context, owner, repo string) (int64, error) {
	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return 0, wrapAPIError(fmt.Sprintf("fetching repository %s/%s", owner, repo), err)
	}

	logRateLimit(resp, owner+"/"+repo)

	return r.GetID(), nil
}

// GetEnvironment checks whether env exists in owner/repo. A 404 is reported
// as driven.ErrEnvironmentNotFound so the caller can create it.
func (c *Client) GetEnvironment(ctx context.Context, owner, repo, env string) error {
	_, resp, err := c.gh.Repositories.GetEnvironment(ctx, owner, repo, env)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("environment %q in %s/%s: %w", env, owner, repo, driven.ErrEnvironmentNotFound)
		}
		return wrapAPIError(fmt.Sprintf("fetching environment %q in %s/%s", env, owner, repo), err)
	}

	logRateLimit(resp, owner+"/"+repo+"/environments")

	return nil
}

// GetEnvironmentPublicKey fetches the key environment secrets are sealed against.
func (c *Client) GetEnvironmentPublicKey(ctx context.Context, repoID int64, env string) (model.PublicKey, error) {
	u := fmt.Sprintf("repositories/%d/environments/%s/secrets/public-key", repoID, url.PathEscape(env))
	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return model.PublicKey{}, fmt.Errorf("building public key request: %w", err)
	}
	// The key may rotate; bypass the transport cache so every call reaches GitHub.
	req.Header.Set("Cache-Control", "no-cache")

	key := new(gh.PublicKey)
	resp, err := c.gh.Do(ctx, req, key)
	if err != nil {
		return model.PublicKey{}, wrapAPIError(fmt.Sprintf("fetching public key for environment %q", env), err)
	}

	logRateLimit(resp, fmt.Sprintf("repositories/%d/public-key", repoID))

	if key.GetKey() == "" || key.GetKeyID() == "" {
		return model.PublicKey{}, fmt.Errorf("public key for environment %q is incomplete", env)
	}

	return model.PublicKey{
		KeyID: key.GetKeyID(),
		Key:   key.GetKey(),
	}, nil
}

// wrapAPIError annotates err with op. GitHub error responses are converted to
// driven.APIError so callers can surface the server-provided message.
func wrapAPIError(op string, err error) error {
	var (
		ghErr    *gh.ErrorResponse
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
	)

	switch {
	case errors.As(err, &ghErr) && ghErr.Response != nil:
		return fmt.Errorf("%s: %w", op, &driven.APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			Err:        err,
		})
	case errors.As(err, &rateErr) && rateErr.Response != nil:
		return fmt.Errorf("%s: %w", op, &driven.APIError{
			StatusCode: rateErr.Response.StatusCode,
			Message:    rateErr.Message,
			Err:        err,
		})
	case errors.As(err, &abuseErr) && abuseErr.Response != nil:
		return fmt.Errorf("%s: %w", op, &driven.APIError{
			StatusCode: abuseErr.Response.StatusCode,
			Message:    abuseErr.Message,
			Err:        err,
		})
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
