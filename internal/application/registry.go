package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// saveTimeout bounds how long persisting a finished run may take.
const saveTimeout = 5 * time.Second

// RunRegistry starts provisioning runs in the background and keeps them
// addressable by id. In-flight runs live in a map; finished runs move to a
// TTL cache so progress pages keep working for the retention period.
type RunRegistry struct {
	svc       *ProvisionService
	store     driven.RunStore
	timeout   time.Duration
	retention time.Duration
	logger    *slog.Logger

	baseCtx context.Context
	mu      sync.RWMutex
	active  map[string]*Run
	recent  *ristretto.Cache
	wg      sync.WaitGroup
	newID   func() string
}

// NewRunRegistry creates a registry. Runs inherit cancellation from ctx, so
// cancelling it (on shutdown) stops every in-flight run between items.
// store may be nil to disable history.
func NewRunRegistry(
	ctx context.Context,
	svc *ProvisionService,
	store driven.RunStore,
	timeout time.Duration,
	retention time.Duration,
	logger *slog.Logger,
) (*RunRegistry, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:            1e5,
		MaxCost:                1e4,
		BufferItems:            64,
		TtlTickerDurationInSec: 60,
		IgnoreInternalCost:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create run cache: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RunRegistry{
		svc:       svc,
		store:     store,
		timeout:   timeout,
		retention: retention,
		logger:    logger,
		baseCtx:   ctx,
		active:    make(map[string]*Run),
		recent:    cache,
		newID:     uuid.NewString,
	}, nil
}

// Start validates req and, if it is acceptable, launches a run in the
// background. Validation errors are returned and no run is created.
func (r *RunRegistry) Start(req model.ProvisionRequest) (*Run, error) {
	valid, err := r.svc.Validate(req)
	if err != nil {
		return nil, err
	}

	run := NewRun(r.newID(), valid.Params)
	// Callers see the real step total before the goroutine is scheduled.
	run.begin(len(valid.Items) + fixedSteps)

	ctx, cancel := context.WithTimeout(r.baseCtx, r.timeout)
	run.setCancel(cancel)

	r.mu.Lock()
	r.active[run.ID()] = run
	r.mu.Unlock()

	runsInFlight.Inc()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer runsInFlight.Dec()
		defer cancel()

		r.svc.Execute(ctx, valid, run)
		r.retire(run)
	}()

	return run, nil
}

// Get returns an in-flight or recently finished run.
func (r *RunRegistry) Get(id string) (*Run, bool) {
	r.mu.RLock()
	run, ok := r.active[id]
	r.mu.RUnlock()
	if ok {
		return run, true
	}

	v, ok := r.recent.Get(id)
	if !ok {
		return nil, false
	}
	run, ok = v.(*Run)
	return run, ok
}

// Cancel requests cancellation of an in-flight run. It reports false if the
// run is unknown or already finished.
func (r *RunRegistry) Cancel(id string) bool {
	r.mu.RLock()
	run, ok := r.active[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	r.logger.Info("run cancellation requested", "run_id", id)
	run.Cancel()
	return true
}

// Wait blocks until every in-flight run has finished.
func (r *RunRegistry) Wait() {
	r.wg.Wait()
}

// Close releases the retention cache. Call after Wait.
func (r *RunRegistry) Close() {
	r.recent.Close()
}

// retire moves a finished run from the active map to the retention cache and
// persists it.
func (r *RunRegistry) retire(run *Run) {
	if !r.recent.SetWithTTL(run.ID(), run, 1, r.retention) {
		r.logger.Warn("finished run dropped from retention cache", "run_id", run.ID())
	}
	r.recent.Wait()

	r.mu.Lock()
	delete(r.active, run.ID())
	r.mu.Unlock()

	if r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.baseCtx), saveTimeout)
	defer cancel()

	if err := r.store.Save(ctx, run.Snapshot()); err != nil {
		r.logger.Error("failed to save run history", "run_id", run.ID(), "error", err)
	}
}
