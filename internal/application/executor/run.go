package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/pkg/domain"
)

// run is the state of one execution: the output store, the report being
// built and the halt flag.
type run struct {
	exec    *Executor
	g       *domain.Graph
	order   []string
	inputs  domain.Values
	opts    domain.Options
	started time.Time
	logger  *zap.Logger

	mu       sync.Mutex
	store    map[string]domain.Values
	report   *domain.RunReport
	attempts []string
	// rootCause maps a failed or skipped node to the failure it stems from.
	rootCause map[string]string
	halted    bool
	haltedBy  string
	onHalt    func()
}

// outcome is the terminal result for one node.
type outcome struct {
	id       string
	state    domain.NodeState
	inputs   domain.Values
	outputs  domain.Values
	err      *domain.NodeError
	duration time.Duration
}

func newRun(e *Executor, g *domain.Graph, order []string, inputs domain.Values, opts domain.Options) *run {
	r := &run{
		exec:      e,
		g:         g,
		order:     order,
		inputs:    inputs.Clone(),
		opts:      opts,
		started:   time.Now(),
		logger:    e.logger.With(zap.String("run_id", opts.RunID)),
		store:     make(map[string]domain.Values),
		rootCause: make(map[string]string),
		report: &domain.RunReport{
			RunID:     opts.RunID,
			Policy:    opts.FailurePolicy,
			Nodes:     make(map[string]*domain.NodeReport, len(order)),
			StartedAt: time.Now().UTC(),
		},
	}
	if r.inputs == nil {
		r.inputs = domain.Values{}
	}

	for _, id := range order {
		n, _ := g.Node(id)
		r.report.Nodes[id] = &domain.NodeReport{
			ID:    id,
			Kind:  n.Kind(),
			State: domain.NodeStateReady,
		}
	}
	return r
}

// prepare applies the between-node checks and assembles inputs. A non-nil
// outcome means the node is resolved without running.
func (r *run) prepare(ctx context.Context, id string) (domain.Values, *outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctx.Err() != nil {
		return nil, &outcome{
			id:    id,
			state: domain.NodeStateCancelled,
			err:   &domain.NodeError{Kind: domain.KindCancelled, Message: "run cancelled before node started"},
		}
	}

	if r.halted {
		return nil, &outcome{
			id:    id,
			state: domain.NodeStateSkipped,
			err: &domain.NodeError{
				Kind:     domain.KindUpstreamFailed,
				Message:  fmt.Sprintf("run halted after %s failed", r.haltedBy),
				Upstream: r.haltedBy,
			},
		}
	}

	node, _ := r.g.Node(id)
	declared := node.Ports()
	incoming := r.g.Incoming(id)
	inputs := domain.Values{}

	if len(incoming) == 0 {
		for k, v := range r.inputs {
			if declared.FreeForm || declared.HasInput(k) {
				inputs[k] = v
			}
		}
	}

	for _, e := range incoming {
		outputs, completed := r.store[e.From.Node]
		var value interface{}
		bound := false
		if completed {
			if e.From.Port == domain.WildcardPort {
				value, bound = map[string]interface{}(outputs.Clone()), true
			} else {
				value, bound = outputs[e.From.Port]
			}
		}
		if bound {
			inputs[e.To.Port] = value
			continue
		}
		if r.opts.FailurePolicy == domain.FailurePolicyContinue && !completed {
			cause := e.From.Node
			if root, ok := r.rootCause[cause]; ok {
				cause = root
			}
			r.rootCause[id] = cause
			return nil, &outcome{
				id:     id,
				state:  domain.NodeStateSkipped,
				inputs: inputs,
				err: &domain.NodeError{
					Kind:     domain.KindUpstreamFailed,
					Message:  fmt.Sprintf("input %s from %s unavailable: %s did not complete", e.To.Port, e.From, cause),
					Upstream: cause,
				},
			}
		}
	}

	for _, port := range declared.Required {
		if _, ok := inputs[port]; !ok {
			return nil, &outcome{
				id:     id,
				state:  domain.NodeStateFailed,
				inputs: inputs,
				err: &domain.NodeError{
					Kind:    domain.KindMissingInput,
					Message: fmt.Sprintf("required input %s is not bound", port),
				},
			}
		}
	}

	return inputs, nil
}

type result struct {
	outputs domain.Values
	err     error
}

// invoke runs one node under the per-node timeout. A node that ignores its
// context is abandoned once the timeout elapses.
func (r *run) invoke(ctx context.Context, id string, inputs domain.Values) *outcome {
	node, _ := r.g.Node(id)
	timeout := r.opts.PerNodeTimeout

	r.setState(id, domain.NodeStateRunning)
	r.publish(ctx, domain.TopicNodeEvents, domain.EventTypeNodeStarted, id, map[string]interface{}{"kind": node.Kind()})
	r.logger.Debug("node started", zap.String("node_id", id), zap.String("kind", node.Kind()))

	start := time.Now()
	var (
		nodeCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		nodeCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		nodeCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("node panicked",
					zap.String("node_id", id),
					zap.Any("panic", p),
					zap.ByteString("stack", debug.Stack()))
				done <- result{err: &domain.Error{Kind: domain.KindInternal, NodeID: id, Message: fmt.Sprintf("panic: %v", p)}}
			}
		}()
		out, err := node.Execute(nodeCtx, inputs.Clone())
		done <- result{outputs: out, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	o := &outcome{id: id, inputs: inputs}
	select {
	case res := <-done:
		o.duration = time.Since(start)
		r.classify(ctx, nodeCtx, node, res, o)
	case <-expired:
		o.duration = time.Since(start)
		o.state = domain.NodeStateFailed
		o.err = timeoutError(timeout)
	}
	return o
}

func (r *run) classify(ctx, nodeCtx context.Context, node domain.Node, res result, o *outcome) {
	switch {
	case res.err == nil:
		outputs := declaredOutputs(node, res.outputs)
		if len(outputs) == 0 {
			o.state = domain.NodeStateFailed
			o.err = &domain.NodeError{Kind: domain.KindInternal, Message: "node completed without producing any declared output"}
			return
		}
		o.state = domain.NodeStateCompleted
		o.outputs = outputs

	case errors.Is(res.err, context.DeadlineExceeded) && errors.Is(nodeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		o.state = domain.NodeStateFailed
		o.err = timeoutError(r.opts.PerNodeTimeout)

	case ctx.Err() != nil && (errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded)):
		o.state = domain.NodeStateCancelled
		o.err = &domain.NodeError{Kind: domain.KindCancelled, Message: "node acknowledged cancellation"}

	default:
		o.state = domain.NodeStateFailed
		o.err = domain.NodeErrorFrom(res.err)
	}
}

func timeoutError(timeout time.Duration) *domain.NodeError {
	return &domain.NodeError{Kind: domain.KindTimeout, Message: fmt.Sprintf("node did not return within %s", timeout)}
}

// declaredOutputs drops values on ports the node instance does not declare.
func declaredOutputs(node domain.Node, out domain.Values) domain.Values {
	declared := node.Ports()
	filtered := make(domain.Values, len(out))
	for k, v := range out {
		if declared.HasOutput(k) {
			filtered[k] = v
		}
	}
	return filtered
}

func (r *run) setState(id string, state domain.NodeState) {
	r.mu.Lock()
	r.report.Nodes[id].State = state
	r.mu.Unlock()
}

// record makes o the node's terminal state. Outputs reach the store only
// for completed nodes.
func (r *run) record(o *outcome) {
	node, _ := r.g.Node(o.id)

	r.mu.Lock()
	nr := r.report.Nodes[o.id]
	nr.State = o.state
	nr.DurationSeconds = o.duration.Seconds()
	nr.Inputs = o.inputs
	nr.Error = o.err
	r.attempts = append(r.attempts, o.id)

	halt := false
	switch o.state {
	case domain.NodeStateCompleted:
		nr.Outputs = o.outputs
		r.store[o.id] = o.outputs
	case domain.NodeStateFailed:
		if _, ok := r.rootCause[o.id]; !ok {
			r.rootCause[o.id] = o.id
		}
		halt = r.opts.FailurePolicy == domain.FailurePolicyHalt || isCritical(node)
	case domain.NodeStateCancelled:
		halt = r.opts.FailurePolicy == domain.FailurePolicyHalt
	}
	var onHalt func()
	if halt && !r.halted {
		r.halted = true
		r.haltedBy = o.id
		onHalt = r.onHalt
	}
	r.mu.Unlock()

	if onHalt != nil {
		onHalt()
	}

	r.exec.metrics.RecordNodeExecuted(node.Kind(), string(o.state), o.duration)

	fields := []zap.Field{
		zap.String("node_id", o.id),
		zap.String("kind", node.Kind()),
		zap.String("state", string(o.state)),
		zap.Duration("duration", o.duration),
	}
	data := map[string]interface{}{
		"kind":             node.Kind(),
		"state":            o.state,
		"duration_seconds": o.duration.Seconds(),
	}
	if o.err != nil {
		fields = append(fields, zap.String("error_kind", string(o.err.Kind)), zap.String("error", o.err.Message))
		data["error"] = o.err
	}

	switch o.state {
	case domain.NodeStateFailed:
		r.logger.Warn("node failed", fields...)
	case domain.NodeStateCompleted:
		r.logger.Debug("node completed", fields...)
	default:
		r.logger.Info("node not executed", fields...)
	}

	r.publish(context.Background(), domain.TopicNodeEvents, domain.NodeEventType(o.state), o.id, data)
}

func isCritical(n domain.Node) bool {
	c, ok := n.(domain.CriticalNode)
	return ok && c.Critical()
}

// finish computes success and the final output.
func (r *run) finish() *domain.RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := r.report
	report.DurationSeconds = time.Since(r.started).Seconds()
	if r.opts.Parallel {
		report.ExecutionOrder = append([]string(nil), r.attempts...)
	} else {
		report.ExecutionOrder = append([]string(nil), r.order...)
	}

	success := true
	outputCompleted := false
	var lastCompleted, lastOutput, primary string
	for _, id := range report.ExecutionOrder {
		nr := report.Nodes[id]
		isOutput := nr.Kind == domain.KindOutput

		if nr.State == domain.NodeStateCompleted {
			lastCompleted = id
			if isOutput {
				outputCompleted = true
				lastOutput = id
				node, _ := r.g.Node(id)
				if p, ok := node.(domain.PrimarySink); ok && p.Primary() && primary == "" {
					primary = id
				}
			}
			continue
		}
		if !isOutput || nr.State == domain.NodeStateFailed || nr.State == domain.NodeStateCancelled {
			success = false
		}
	}
	report.Success = success && outputCompleted

	switch {
	case primary != "":
		report.FinalOutput = report.Nodes[primary].Outputs.Clone()
	case lastOutput != "":
		report.FinalOutput = report.Nodes[lastOutput].Outputs.Clone()
	case lastCompleted != "":
		report.FinalOutput = report.Nodes[lastCompleted].Outputs.Clone()
	}

	return report
}

// publish sends an event if a bus is configured. Delivery failures are
// logged and otherwise ignored; they never affect the run.
func (r *run) publish(ctx context.Context, topic string, typ domain.EventType, nodeID string, data map[string]interface{}) {
	bus := r.exec.eventBus
	if bus == nil {
		return
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		RunID:     r.opts.RunID,
		NodeID:    nodeID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if err := bus.Publish(context.WithoutCancel(ctx), topic, event); err != nil {
		r.logger.Warn("failed to publish event",
			zap.String("type", string(typ)),
			zap.String("node_id", nodeID),
			zap.Error(err))
	}
}
