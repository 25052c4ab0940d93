package onnx

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelyard/onnx-runner/pkg/logging"
	"github.com/modelyard/onnx-runner/pkg/registry"
)

// BatchFunc is the batch execution hook a concrete serving integration
// supplies to a Runner. It receives the runner's live session and performs
// model-specific input/output tensor marshaling; the provisioning core does
// not standardize its behavior beyond invocation.
type BatchFunc func(ctx context.Context, session Session, inputs map[string]*Tensor) (map[string]*Tensor, error)

// RunnerConfig is the declared configuration surface consumed at Runner
// construction.
type RunnerConfig struct {
	// Backend is the requested inference backend name. Empty defaults to
	// BackendONNXRuntime.
	Backend string
	// Providers is the requested execution provider list. Empty defaults to
	// the providers available on this host at construction time.
	Providers []ProviderSpec
	// SessionOptions is passed through, unchanged, to the runtime on load.
	SessionOptions *SessionOptions
	// Quota is the declared resource allocation.
	Quota ResourceQuota
	// Batch is the batch execution hook invoked by Run. Optional.
	Batch BatchFunc
	// BatchOptions is an opaque bag consumed by the batch execution hook.
	BatchOptions map[string]any
	// InMemoryModel optionally supplies an already-serialized model,
	// bypassing the record's on-disk artifact.
	InMemoryModel []byte
}

// Runner is a provisioned, scalable unit of inference-serving logic bound to
// one stored model. Construction validates the backend and providers and
// resolves the artifact eagerly; the session itself is loaded lazily, at most
// once, on first Setup. The live session is exclusively owned by its Runner
// and is never shared across Runner instances.
type Runner struct {
	// log is the associated logger.
	log logging.Logger
	// rt is the inference runtime.
	rt Runtime
	// record is the resolved model record.
	record *registry.Record
	// location is the resolved artifact load target.
	location ArtifactLocation
	// backend is the validated backend name.
	backend string
	// providers is the normalized, validated provider list.
	providers []string
	// sessionOptions is the opaque session configuration.
	sessionOptions *SessionOptions
	// topology is the planned serving topology.
	topology Topology
	// batch is the batch execution hook.
	batch BatchFunc
	// batchOptions is the opaque batch configuration bag.
	batchOptions map[string]any

	// mu serializes the load transition and guards the fields below.
	mu sync.Mutex
	// session is the owned live session, non-nil once loaded.
	session Session
	// closed indicates that the runner has been closed.
	closed bool
}

// NewRunner constructs a Runner for the given stored model tag. The store and
// runtime are explicit collaborators; there is no ambient default. Backend
// validation, provider normalization, and artifact resolution run eagerly
// here, but the session is not loaded.
func NewRunner(log logging.Logger, store registry.Store, rt Runtime, tag string, cfg RunnerConfig) (*Runner, error) {
	record, err := getRecord(store, tag)
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendONNXRuntime
	}
	if err := ValidateBackend(backend); err != nil {
		return nil, err
	}

	providers, err := NormalizeProviders(cfg.Providers, rt.AvailableProviders(), rt.AllProviders())
	if err != nil {
		return nil, err
	}

	if err := cfg.Quota.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resource quota: %w", err)
	}

	return &Runner{
		log:            log,
		rt:             rt,
		record:         record,
		location:       ResolveArtifact(record, cfg.InMemoryModel),
		backend:        backend,
		providers:      providers,
		sessionOptions: cfg.SessionOptions,
		topology:       PlanTopology(cfg.Quota),
		batch:          cfg.Batch,
		batchOptions:   cfg.BatchOptions,
	}, nil
}

// RequiredModels returns the upstream model tags this runner depends on, for
// the scheduler's dependency graph. It is always a single tag.
func (r *Runner) RequiredModels() []registry.Tag {
	return []registry.Tag{r.record.Tag}
}

// Backend returns the validated backend name.
func (r *Runner) Backend() string {
	return r.backend
}

// Providers returns the normalized provider list. The returned slice must not
// be mutated.
func (r *Runner) Providers() []string {
	return r.providers
}

// Topology returns the planned serving topology so the scheduler can
// provision the declared number of parallel workers.
func (r *Runner) Topology() Topology {
	return r.topology
}

// BatchOptions returns the opaque batch configuration bag.
func (r *Runner) BatchOptions() map[string]any {
	return r.batchOptions
}

// Setup performs the runner's one-time load transition. It may block on disk
// I/O or accelerator context acquisition and should be issued off the
// scheduler's hot path. Once loaded, Setup is a no-op. Concurrent calls
// serialize so that exactly one load occurs. A failed attempt leaves the
// runner un-loaded: the error is surfaced whole and the core performs no
// retry of its own, but a subsequent Setup call may try again.
func (r *Runner) Setup(ctx context.Context) error {
	_, err := r.activate(ctx)
	return err
}

// activate performs the load transition under the runner's lock and returns
// the owned session, so callers get the session and the liveness check as one
// atomic step.
func (r *Runner) activate(ctx context.Context) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRunnerClosed
	}
	if r.session != nil {
		return r.session, nil
	}

	r.log.Infof("Loading session for %s from %s (backend=%s, providers=%v)",
		r.record.Tag, r.location, r.backend, r.providers,
	)
	session, err := LoadSession(ctx, r.rt, r.location, r.sessionOptions, r.providers)
	if err != nil {
		return nil, err
	}
	r.session = withRecordedSignature(session, r.record)
	return r.session, nil
}

// Loaded reports whether the runner holds a live session.
func (r *Runner) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// Session returns the owned live session, or nil before the load transition.
func (r *Runner) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Run invokes the configured batch execution hook, activating the runner
// first if needed. The session handed to the hook is captured in the same
// critical section as the activation, so a concurrent Close cannot slip a nil
// session into the hook. The hook owns input/output marshaling; the
// provisioning core does not serialize concurrent Run calls against the
// loaded session.
func (r *Runner) Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error) {
	if r.batch == nil {
		return nil, ErrBatchNotConfigured
	}
	session, err := r.activate(ctx)
	if err != nil {
		return nil, err
	}
	return r.batch(ctx, session, inputs)
}

// Close releases the runner's session, if loaded. The runner cannot be
// reactivated afterwards.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	return err
}
