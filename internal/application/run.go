package application

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

// RunOption configures a Run at construction time.
type RunOption func(*Run)

// WithEntryListener registers fn to be called synchronously, on the writer
// goroutine, for every result entry appended to the run.
func WithEntryListener(fn func(model.ResultEntry)) RunOption {
	return func(r *Run) {
		r.listeners = append(r.listeners, fn)
	}
}

// WithClock overrides the time source used for entry and run timestamps.
func WithClock(now func() time.Time) RunOption {
	return func(r *Run) {
		r.now = now
	}
}

// Run holds the progress and result log of one provisioning run.
// ProvisionService is its only writer; any goroutine may read it through
// Snapshot.
type Run struct {
	mu        sync.RWMutex
	state     model.RunSnapshot
	listeners []func(model.ResultEntry)
	now       func() time.Time

	cancelMu sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

// NewRun creates an idle run for params. The token is not retained.
func NewRun(id string, params model.ConnectionParams, opts ...RunOption) *Run {
	r := &Run{
		state: model.RunSnapshot{
			ID:          id,
			Owner:       params.Owner,
			Repo:        params.Repo,
			Environment: params.Environment,
			Kind:        params.Kind,
			Progress:    model.ProgressState{Phase: model.RunPhaseIdle, Status: "Idle"},
		},
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.state.ID
}

// Snapshot returns a copy of the current state that is safe to keep.
func (r *Run) Snapshot() model.RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.state
	s.Entries = slices.Clone(r.state.Entries)
	return s
}

// Done is closed once the run reaches a terminal phase.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel requests cooperative cancellation. It is a no-op for runs that
// were not started with a cancellable context or have already finished.
func (r *Run) Cancel() {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Run) setCancel(cancel context.CancelFunc) {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	r.cancel = cancel
}

// begin moves the run to the running phase. Calling it again keeps the
// original start time.
func (r *Run) begin(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.StartedAt.IsZero() {
		r.state.StartedAt = r.now()
	}
	r.state.Progress = model.ProgressState{
		Current: 0,
		Total:   total,
		Status:  "Initializing...",
		Phase:   model.RunPhaseRunning,
	}
}

// advance moves the step counter forward. The counter never decreases and is
// clamped to the total.
func (r *Run) advance(current int, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current > r.state.Progress.Total {
		current = r.state.Progress.Total
	}
	if current > r.state.Progress.Current {
		r.state.Progress.Current = current
	}
	r.state.Progress.Status = status
}

func (r *Run) setRepositoryID(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.RepositoryID = id
}

func (r *Run) append(kind model.ResultKind, message string) {
	entry := model.ResultEntry{Kind: kind, Message: message, At: r.now()}

	r.mu.Lock()
	r.state.Entries = append(r.state.Entries, entry)
	listeners := r.listeners
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(entry)
	}
}

func (r *Run) finish(phase model.RunPhase, status string) {
	r.mu.Lock()
	r.state.Progress.Phase = phase
	r.state.Progress.Status = status
	r.state.FinishedAt = r.now()
	r.mu.Unlock()

	r.doneOnce.Do(func() { close(r.done) })
}
