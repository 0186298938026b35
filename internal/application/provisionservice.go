// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// fixedSteps counts the repository lookup and the environment check.
const fixedSteps = 2

// ProvisionService pushes secrets or variables into a GitHub deployment
// environment. Every step runs strictly in sequence on the calling goroutine.
type ProvisionService struct {
	clients        ClientFactory
	sealer         driven.SecretSealer
	cachePublicKey bool
	logger         *slog.Logger
}

// NewProvisionService creates a ProvisionService. When cachePublicKey is
// true the environment public key is fetched once per run instead of once
// per secret.
func NewProvisionService(clients ClientFactory, sealer driven.SecretSealer, cachePublicKey bool, logger *slog.Logger) *ProvisionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProvisionService{
		clients:        clients,
		sealer:         sealer,
		cachePublicKey: cachePublicKey,
		logger:         logger,
	}
}

// Validate normalizes req and checks it before any network call. It returns
// a *ValidationError when a connection field is blank and ErrNoValidItems
// when no item survives filtering. The returned request contains only valid
// items, in input order.
func (s *ProvisionService) Validate(req model.ProvisionRequest) (model.ProvisionRequest, error) {
	p := req.Params
	p.Token = strings.TrimSpace(p.Token)
	p.Owner = strings.TrimSpace(p.Owner)
	p.Repo = strings.TrimSpace(p.Repo)
	p.Environment = strings.TrimSpace(p.Environment)
	if p.Kind == "" {
		p.Kind = model.ItemKindVariable
	}

	if missing := p.MissingFields(); len(missing) > 0 {
		return model.ProvisionRequest{}, &ValidationError{Missing: missing}
	}

	valid := model.FilterValid(req.Items)
	if len(valid) == 0 {
		return model.ProvisionRequest{}, ErrNoValidItems
	}
	for i := range valid {
		valid[i].Name = strings.TrimSpace(valid[i].Name)
	}

	return model.ProvisionRequest{Params: p, Items: valid}, nil
}

// Execute performs one provisioning run and records every outcome on run.
// No error escapes: fatal failures end the run in RunPhaseFailed, item
// failures are logged as error entries and the run still completes.
// ctx is checked between items for cooperative cancellation.
func (s *ProvisionService) Execute(ctx context.Context, req model.ProvisionRequest, run *Run) {
	params := req.Params
	items := model.FilterValid(req.Items)
	start := time.Now()

	run.begin(len(items) + fixedSteps)
	s.logger.Info("provisioning run started",
		"run_id", run.ID(),
		"repo", params.RepoFullName(),
		"environment", params.Environment,
		"kind", params.Kind,
		"items", len(items),
	)

	phase := s.execute(ctx, params, items, run)

	recordRun(params.Kind, phase, time.Since(start))
	snap := run.Snapshot()
	s.logger.Info("provisioning run finished",
		"run_id", run.ID(),
		"phase", phase,
		"entries", len(snap.Entries),
		"errors", snap.ErrorCount(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

func (s *ProvisionService) execute(ctx context.Context, params model.ConnectionParams, items []model.Item, run *Run) model.RunPhase {
	fail := func(format string, args ...any) model.RunPhase {
		run.append(model.ResultError, fmt.Sprintf(format, args...))
		run.finish(model.RunPhaseFailed, "Failed")
		return model.RunPhaseFailed
	}

	api, err := s.clients(params.Token)
	if err != nil {
		return fail("Failed to create GitHub client: %s", err)
	}

	// Step 1: repository id.
	run.advance(1, "Getting repository information...")
	repoID, err := api.GetRepositoryID(ctx, params.Owner, params.Repo)
	if err != nil {
		return fail("Failed to resolve repository %s: %s", params.RepoFullName(), describeError(err))
	}
	run.setRepositoryID(repoID)
	run.append(model.ResultSuccess, fmt.Sprintf("Repository ID: %d", repoID))

	// Step 2: environment.
	run.advance(2, "Checking environment...")
	if err := s.ensureEnvironment(ctx, api, params, run); err != nil {
		return fail("%s", err)
	}

	// Step 3..n+2: items.
	var cachedKey *model.PublicKey
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return fail("Run canceled before %s %s: %s", params.Kind.Singular(), item.Name, err)
		}

		run.advance(fixedSteps+1+i, fmt.Sprintf("Creating %s: %s...", params.Kind.Singular(), item.Name))

		var outcome string
		if params.Kind == model.ItemKindSecret {
			outcome = s.upsertSecret(ctx, api, repoID, params.Environment, item, run, &cachedKey)
		} else {
			outcome = s.upsertVariable(ctx, api, repoID, params.Environment, item, run)
		}
		recordItem(params.Kind, outcome)
	}

	if err := ctx.Err(); err != nil && len(items) > 0 {
		return fail("Run canceled after %s %s: %s", params.Kind.Singular(), items[len(items)-1].Name, err)
	}

	errCount := run.Snapshot().ErrorCount()
	status := "Completed"
	if errCount > 0 {
		status = fmt.Sprintf("Completed with %d error(s)", errCount)
	}
	run.finish(model.RunPhaseCompleted, status)
	return model.RunPhaseCompleted
}

// ensureEnvironment checks for the environment and creates it on 404. The
// returned error is already phrased for the result log.
func (s *ProvisionService) ensureEnvironment(ctx context.Context, api driven.EnvironmentAPI, params model.ConnectionParams, run *Run) error {
	err := api.GetEnvironment(ctx, params.Owner, params.Repo, params.Environment)
	if err == nil {
		run.append(model.ResultSuccess, fmt.Sprintf("Environment %q exists", params.Environment))
		return nil
	}
	if !errors.Is(err, driven.ErrEnvironmentNotFound) {
		return fmt.Errorf("Failed to check environment %q: %s", params.Environment, describeError(err))
	}

	run.append(model.ResultWarning, fmt.Sprintf("Creating environment %q...", params.Environment))
	if err := api.CreateEnvironment(ctx, params.Owner, params.Repo, params.Environment); err != nil {
		return fmt.Errorf("Failed to create environment %q: %s", params.Environment, describeError(err))
	}
	run.append(model.ResultSuccess, fmt.Sprintf("Environment %q created", params.Environment))
	return nil
}

// Item outcomes, used as metric labels.
const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
	outcomeFailed  = "failed"
)

// upsertSecret seals item.Value against the environment public key and
// uploads it with a single create-or-overwrite call.
func (s *ProvisionService) upsertSecret(
	ctx context.Context,
	api driven.EnvironmentAPI,
	repoID int64,
	env string,
	item model.Item,
	run *Run,
	cachedKey **model.PublicKey,
) string {
	var key model.PublicKey
	if s.cachePublicKey && *cachedKey != nil {
		key = **cachedKey
	} else {
		fetched, err := api.GetEnvironmentPublicKey(ctx, repoID, env)
		if err != nil {
			run.append(model.ResultError, fmt.Sprintf("Failed to fetch public key for secret %s: %s", item.Name, describeError(err)))
			return outcomeFailed
		}
		key = fetched
		if s.cachePublicKey {
			*cachedKey = &fetched
		}
	}

	sealed, err := s.sealer.Seal(key.Key, item.Value)
	if err != nil {
		run.append(model.ResultError, fmt.Sprintf("Failed to encrypt secret %s: %s", item.Name, err))
		return outcomeFailed
	}

	err = api.SetEnvironmentSecret(ctx, repoID, env, model.EncryptedSecret{
		Name:           item.Name,
		KeyID:          key.KeyID,
		EncryptedValue: sealed,
	})
	if err != nil {
		run.append(model.ResultError, fmt.Sprintf("Failed to set secret %s: %s", item.Name, describeError(err)))
		return outcomeFailed
	}

	run.append(model.ResultSuccess, fmt.Sprintf("Secret %s processed successfully", item.Name))
	return outcomeCreated
}

// upsertVariable creates item, falling back to an update when GitHub reports
// that the variable already exists.
func (s *ProvisionService) upsertVariable(
	ctx context.Context,
	api driven.EnvironmentAPI,
	repoID int64,
	env string,
	item model.Item,
	run *Run,
) string {
	err := api.CreateEnvironmentVariable(ctx, repoID, env, item)
	if err == nil {
		run.append(model.ResultSuccess, fmt.Sprintf("Variable %s processed successfully", item.Name))
		return outcomeCreated
	}
	if !errors.Is(err, driven.ErrVariableExists) {
		run.append(model.ResultError, fmt.Sprintf("Failed to create variable %s: %s", item.Name, describeError(err)))
		return outcomeFailed
	}

	run.append(model.ResultWarning, fmt.Sprintf("Variable %s exists, updating...", item.Name))
	if err := api.UpdateEnvironmentVariable(ctx, repoID, env, item); err != nil {
		run.append(model.ResultError, fmt.Sprintf("Failed to update variable %s: %s", item.Name, describeError(err)))
		return outcomeFailed
	}

	run.append(model.ResultSuccess, fmt.Sprintf("Variable %s processed successfully", item.Name))
	return outcomeUpdated
}
