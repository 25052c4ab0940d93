// Package serving provisions runner replicas according to a planned topology
// and drives inference tasks against them. It plays the role of the worker
// pool an external scheduler would normally provide.
package serving

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modelyard/onnx-runner/pkg/logging"
	"github.com/modelyard/onnx-runner/pkg/metrics"
	"github.com/modelyard/onnx-runner/pkg/onnx"
)

// RunnerFactory constructs one runner replica. Each replica owns its own
// runner and therefore its own session; sessions are never shared across
// replicas.
type RunnerFactory func() (*onnx.Runner, error)

// Task is one unit of inference work executed against a replica's session.
type Task func(ctx context.Context, session onnx.Session) error

// Pool provisions Topology.Replicas runner replicas, each served by
// Topology.ConcurrencyPerReplica workers draining a shared task queue.
type Pool struct {
	// log is the associated logger.
	log logging.Logger
	// factory constructs runner replicas.
	factory RunnerFactory
	// recorder is the optional metrics recorder.
	recorder *metrics.Recorder
	// tasks is the shared task queue.
	tasks chan Task
}

// NewPool creates a pool. The recorder may be nil.
func NewPool(log logging.Logger, factory RunnerFactory, recorder *metrics.Recorder) *Pool {
	return &Pool{
		log:      log,
		factory:  factory,
		recorder: recorder,
		tasks:    make(chan Task),
	}
}

// Submit enqueues a task. It blocks until a worker accepts the task or the
// context is cancelled.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run provisions the replicas and serves tasks until the context is
// cancelled. Provisioning and activation failures are terminal: the pool
// shuts down whole and the error is surfaced to the caller, which owns any
// retry policy. No replica keeps serving after Run returns.
func (p *Pool) Run(ctx context.Context) error {
	// The topology is a pure function of the runner configuration, so the
	// first replica's plan holds for all of them. All runners are
	// constructed before any replica starts serving, so a construction
	// failure never strands a live replica on the shared queue.
	first, err := p.factory()
	if err != nil {
		return fmt.Errorf("unable to construct runner: %w", err)
	}
	topology := first.Topology()
	runners := []*onnx.Runner{first}
	for replica := 1; replica < topology.Replicas; replica++ {
		runner, err := p.factory()
		if err != nil {
			for _, built := range runners {
				built.Close()
			}
			return fmt.Errorf("unable to construct runner for replica %d: %w", replica, err)
		}
		runners = append(runners, runner)
	}
	p.log.Infof("Provisioning %d replica(s) with concurrency %d",
		topology.Replicas, topology.ConcurrencyPerReplica,
	)

	group, ctx := errgroup.WithContext(ctx)
	for replica, runner := range runners {
		group.Go(func() error {
			return p.serveReplica(ctx, replica, runner, topology.ConcurrencyPerReplica)
		})
	}
	return group.Wait()
}

// serveReplica activates one runner and drains the task queue with the
// replica's worker budget.
func (p *Pool) serveReplica(ctx context.Context, replica int, runner *onnx.Runner, concurrency int) error {
	defer runner.Close()

	// Activation blocks on disk I/O and possibly accelerator context
	// acquisition; it happens here, off the submission path.
	start := time.Now()
	err := runner.Setup(ctx)
	if p.recorder != nil {
		p.recorder.ObserveLoad(start, err)
	}
	if err != nil {
		return fmt.Errorf("replica %d activation failed: %w", replica, err)
	}

	if p.recorder != nil {
		p.recorder.ReplicaUp()
		defer p.recorder.ReplicaDown()
	}

	workers, ctx := errgroup.WithContext(ctx)
	for worker := 0; worker < concurrency; worker++ {
		workers.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case task := <-p.tasks:
					err := task(ctx, runner.Session())
					if p.recorder != nil {
						p.recorder.ObserveTask(err)
					}
					if err != nil {
						p.log.Warnf("Task failed on replica %d: %v", replica, err)
					}
				}
			}
		})
	}
	return workers.Wait()
}
