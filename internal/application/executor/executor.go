// Package executor drives a loaded graph through one run.
//
// Nodes run in the order produced by the scheduler. Each node's inputs are
// assembled from the outputs of completed upstream nodes; outputs are
// written to the run's store only when the node completes. Node failures
// never escape Execute: they are recorded in the run report, which is
// always returned for a schedulable graph.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/scheduler"
	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// DefaultMaxParallel bounds parallel mode when Options.MaxParallel is unset.
const DefaultMaxParallel = 4

// Executor runs graphs. It holds no per-run state and is safe for
// concurrent use.
type Executor struct {
	logger   *zap.Logger
	metrics  ports.MetricsCollector
	eventBus ports.EventBus
}

// New creates an executor. metrics and eventBus may be nil.
func New(logger *zap.Logger, metrics ports.MetricsCollector, eventBus ports.EventBus) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Executor{
		logger:   logger,
		metrics:  metrics,
		eventBus: eventBus,
	}
}

// Execute runs g with the given initial inputs. Cancelling ctx cancels the
// run: nodes not yet started are marked cancelled. An error is returned
// only when g cannot be scheduled.
func (e *Executor) Execute(ctx context.Context, g *domain.Graph, inputs domain.Values, opts domain.Options) (*domain.RunReport, error) {
	if g == nil || g.Len() == 0 {
		return nil, &domain.Error{Kind: domain.KindInvalidDescription, Message: "graph has no nodes"}
	}

	order, err := scheduler.Schedule(g)
	if err != nil {
		return nil, err
	}

	if opts.FailurePolicy == "" {
		opts.FailurePolicy = domain.FailurePolicyHalt
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	if opts.Parallel && opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}

	r := newRun(e, g, order, inputs, opts)

	e.logger.Info("run started",
		zap.String("run_id", opts.RunID),
		zap.Int("nodes", len(order)),
		zap.String("failure_policy", string(opts.FailurePolicy)),
		zap.Bool("parallel", opts.Parallel))
	r.publish(ctx, domain.TopicRunEvents, domain.EventTypeRunStarted, "", map[string]interface{}{
		"execution_order": order,
		"failure_policy":  opts.FailurePolicy,
	})

	if opts.Parallel {
		r.executeParallel(ctx)
	} else {
		r.executeSequential(ctx)
	}

	report := r.finish()

	duration := time.Since(r.started)
	e.metrics.RecordRunCompleted(report.Success, duration)

	eventType := domain.EventTypeRunCompleted
	if ctx.Err() != nil {
		eventType = domain.EventTypeRunCancelled
	}
	r.publish(ctx, domain.TopicRunEvents, eventType, "", map[string]interface{}{
		"success":          report.Success,
		"duration_seconds": report.DurationSeconds,
	})

	e.logger.Info("run finished",
		zap.String("run_id", opts.RunID),
		zap.Bool("success", report.Success),
		zap.Duration("duration", duration),
		zap.Int("failed", len(report.NodesIn(domain.NodeStateFailed))),
		zap.Int("skipped", len(report.NodesIn(domain.NodeStateSkipped))),
		zap.Int("cancelled", len(report.NodesIn(domain.NodeStateCancelled))))

	return report, nil
}

func (r *run) executeSequential(ctx context.Context) {
	for _, id := range r.order {
		inputs, resolved := r.prepare(ctx, id)
		if resolved != nil {
			r.record(resolved)
			continue
		}
		r.record(r.invoke(ctx, id, inputs))
	}
}
