package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/loader"
	"github.com/aescanero/autogent/internal/application/nodes"
	"github.com/aescanero/autogent/internal/application/registry"
	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// --- helpers ---

type llmFunc func(ctx context.Context, req ports.ChatRequest) (*ports.ChatResponse, error)

func (f llmFunc) Generate(ctx context.Context, req ports.ChatRequest) (*ports.ChatResponse, error) {
	return f(ctx, req)
}

var failingLLM = llmFunc(func(context.Context, ports.ChatRequest) (*ports.ChatResponse, error) {
	return nil, errors.New("provider unavailable")
})

func loadWorkflow(t *testing.T, llm ports.LLMChat, doc string) *domain.Graph {
	t.Helper()

	reg := registry.New()
	nodes.Register(reg, ports.Bundle{LLM: llm})

	desc, err := domain.ParseDescription([]byte(doc))
	require.NoError(t, err)

	g, err := loader.New(reg, zap.NewNop()).Load(desc)
	require.NoError(t, err)
	return g
}

type testNode struct {
	id       string
	kind     string
	ports    domain.Ports
	critical bool
	fn       func(ctx context.Context, in domain.Values) (domain.Values, error)
	calls    int32
}

func (n *testNode) ID() string { return n.id }

func (n *testNode) Kind() string { return n.kind }

func (n *testNode) Ports() domain.Ports { return n.ports }

func (n *testNode) Critical() bool { return n.critical }

func (n *testNode) Execute(ctx context.Context, in domain.Values) (domain.Values, error) {
	atomic.AddInt32(&n.calls, 1)
	if n.fn != nil {
		return n.fn(ctx, in)
	}
	return domain.Values{"out": n.id}, nil
}

func step(id string) *testNode {
	return &testNode{
		id:    id,
		kind:  "step",
		ports: domain.Ports{FreeForm: true, Outputs: []string{"out"}},
	}
}

func sink(id string) *testNode {
	n := step(id)
	n.kind = domain.KindOutput
	return n
}

func failing(id string) *testNode {
	n := step(id)
	n.fn = func(context.Context, domain.Values) (domain.Values, error) {
		return nil, errors.New("boom")
	}
	return n
}

// graphOf wires edges written as "A->B". Each edge feeds a distinct input
// port named after the source node.
func graphOf(nodes []*testNode, edges ...string) *domain.Graph {
	g := domain.NewGraph()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		parts := strings.Split(e, "->")
		g.AddEdge(domain.Edge{
			From: domain.PortRef{Node: parts[0], Port: "out"},
			To:   domain.PortRef{Node: parts[1], Port: parts[0]},
		})
	}
	return g
}

func newExecutor() *Executor {
	return New(zap.NewNop(), nil, nil)
}

func state(r *domain.RunReport, id string) domain.NodeState {
	return r.Nodes[id].State
}

const linear = `{
  "nodes": {
    "A": {"kind": "text_input", "config": {"default_text": "hello"}},
    "B": {"kind": "text_processing", "config": {"operation": "summarize", "max_length": 1}},
    "C": {"kind": "output", "config": {"format": "text"}}
  },
  "edges": [
    {"from": ["A", "text"], "to": ["B", "text"]},
    {"from": ["B", "text"], "to": ["C", "text"]}
  ]
}`

const diamond = `{
  "nodes": {
    "A": {"kind": "text_input", "config": {"default_text": "x"}},
    "B": {"kind": "text_processing", "config": {"operation": "passthrough"}},
    "F": {"kind": "ai_model", "config": {"provider": "openai"}},
    "C": {"kind": "output"}
  },
  "edges": [
    {"from": ["A", "text"], "to": ["B", "text"]},
    {"from": ["A", "text"], "to": ["F", "text"]},
    {"from": ["B", "text"], "to": ["C", "text"]}
  ]
}`

// --- end-to-end scenarios ---

func TestExecute_LinearHappyPath(t *testing.T) {
	g := loadWorkflow(t, nil, linear)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, []string{"A", "B", "C"}, report.ExecutionOrder)
	assert.Equal(t, "hello", report.Nodes["B"].Outputs["text"])
	assert.Equal(t, domain.Values{"output": "hello", "format": "text"}, report.FinalOutput)
	assert.NotEmpty(t, report.RunID)
}

func TestExecute_InputOverride(t *testing.T) {
	g := loadWorkflow(t, nil, linear)

	report, err := newExecutor().Execute(context.Background(), g, domain.Values{"text": "alpha beta"}, domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, "alpha", report.Nodes["B"].Outputs["text"])
	assert.Equal(t, "alpha", report.FinalOutput["output"])
}

func TestExecute_DiamondContinue(t *testing.T) {
	g := loadWorkflow(t, failingLLM, diamond)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{FailurePolicy: domain.FailurePolicyContinue})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "F", "C"}, report.ExecutionOrder)
	assert.Equal(t, domain.NodeStateCompleted, state(report, "A"))
	assert.Equal(t, domain.NodeStateCompleted, state(report, "B"))
	assert.Equal(t, domain.NodeStateFailed, state(report, "F"))
	assert.Equal(t, domain.KindAdapterFailure, report.Nodes["F"].Error.Kind)
	assert.Equal(t, domain.NodeStateCompleted, state(report, "C"))
	assert.False(t, report.Success)
	assert.Equal(t, "x", report.FinalOutput["output"])
}

func TestExecute_DiamondHalt(t *testing.T) {
	g := loadWorkflow(t, failingLLM, diamond)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{FailurePolicy: domain.FailurePolicyHalt})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "F", "C"}, report.ExecutionOrder)
	assert.Equal(t, domain.NodeStateFailed, state(report, "F"))
	assert.Equal(t, domain.NodeStateSkipped, state(report, "C"))
	assert.Equal(t, domain.KindUpstreamFailed, report.Nodes["C"].Error.Kind)
	assert.Equal(t, "F", report.Nodes["C"].Error.Upstream)
	assert.False(t, report.Success)
	// no output node completed: fall back to the last completed node
	assert.Equal(t, domain.Values{"text": "x"}, report.FinalOutput)
}

func TestExecute_CycleRejected(t *testing.T) {
	a, b := step("A"), step("B")
	g := graphOf([]*testNode{a, b}, "A->B", "B->A")

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, domain.ErrGraphHasCycle))
	assert.Zero(t, a.calls)
	assert.Zero(t, b.calls)
}

func TestExecute_Timeout(t *testing.T) {
	slow := llmFunc(func(ctx context.Context, _ ports.ChatRequest) (*ports.ChatResponse, error) {
		select {
		case <-time.After(10 * time.Second):
			return &ports.ChatResponse{Text: "late"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	g := loadWorkflow(t, slow, `{"nodes": {"X": {"kind": "ai_model"}}, "edges": []}`)

	timeout := 50 * time.Millisecond
	report, err := newExecutor().Execute(context.Background(), g, domain.Values{"text": "hi"}, domain.Options{PerNodeTimeout: timeout})
	require.NoError(t, err)

	x := report.Nodes["X"]
	assert.Equal(t, domain.NodeStateFailed, x.State)
	assert.Equal(t, domain.KindTimeout, x.Error.Kind)
	assert.GreaterOrEqual(t, x.DurationSeconds, timeout.Seconds())
	assert.Empty(t, x.Outputs)
}

func TestExecute_TimeoutAbandonsUncooperativeNode(t *testing.T) {
	stuck := step("stuck")
	release := make(chan struct{})
	defer close(release)
	stuck.fn = func(context.Context, domain.Values) (domain.Values, error) {
		<-release
		return domain.Values{"out": "late"}, nil
	}
	out := sink("out")
	g := graphOf([]*testNode{stuck, out}, "stuck->out")

	timeout := 30 * time.Millisecond
	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{
		PerNodeTimeout: timeout,
		FailurePolicy:  domain.FailurePolicyContinue,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KindTimeout, report.Nodes["stuck"].Error.Kind)
	assert.GreaterOrEqual(t, report.Nodes["stuck"].DurationSeconds, timeout.Seconds())
	assert.Equal(t, domain.NodeStateSkipped, state(report, "out"))
	assert.Zero(t, out.calls)
}

// --- invariants ---

func TestExecute_AtMostOnce(t *testing.T) {
	a, b, c, d := step("a"), step("b"), step("c"), sink("d")
	all := []*testNode{a, b, c, d}
	g := graphOf(all, "a->b", "a->c", "b->d", "c->d")

	for _, parallel := range []bool{false, true} {
		for _, n := range all {
			atomic.StoreInt32(&n.calls, 0)
		}
		report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{Parallel: parallel})
		require.NoError(t, err)
		assert.True(t, report.Success)
		for _, n := range all {
			assert.Equal(t, int32(1), atomic.LoadInt32(&n.calls), "node %s parallel=%v", n.id, parallel)
		}
	}
}

func TestExecute_PredecessorsTerminalBeforeStart(t *testing.T) {
	var mu sync.Mutex
	var events []string
	trace := func(n *testNode) *testNode {
		n.fn = func(context.Context, domain.Values) (domain.Values, error) {
			mu.Lock()
			events = append(events, "start:"+n.id)
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			events = append(events, "end:"+n.id)
			mu.Unlock()
			return domain.Values{"out": n.id}, nil
		}
		return n
	}

	all := []*testNode{trace(step("s1")), trace(step("s2")), trace(step("m")), trace(step("x")), trace(step("y")), trace(sink("z"))}
	edges := []string{"s1->m", "s2->m", "m->x", "m->y", "x->z", "y->z"}
	g := graphOf(all, edges...)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{Parallel: true, MaxParallel: 3})
	require.NoError(t, err)
	require.True(t, report.Success)

	pos := make(map[string]int)
	for i, e := range events {
		pos[e] = i
	}
	for _, e := range edges {
		parts := strings.Split(e, "->")
		assert.Less(t, pos["end:"+parts[0]], pos["start:"+parts[1]], e)
	}
}

func TestExecute_DeterministicOrder(t *testing.T) {
	first, err := newExecutor().Execute(context.Background(), loadWorkflow(t, failingLLM, diamond), nil, domain.Options{})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := newExecutor().Execute(context.Background(), loadWorkflow(t, failingLLM, diamond), nil, domain.Options{})
		require.NoError(t, err)
		assert.Equal(t, first.ExecutionOrder, again.ExecutionOrder)
	}
}

func TestExecute_OutputsOnlyForCompletedNodes(t *testing.T) {
	g := loadWorkflow(t, failingLLM, diamond)

	for _, policy := range []domain.FailurePolicy{domain.FailurePolicyHalt, domain.FailurePolicyContinue} {
		report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{FailurePolicy: policy})
		require.NoError(t, err)
		for id, nr := range report.Nodes {
			if nr.State == domain.NodeStateCompleted {
				assert.NotEmpty(t, nr.Outputs, id)
			} else {
				assert.Empty(t, nr.Outputs, id)
				assert.NotNil(t, nr.Error, id)
			}
		}
	}
}

func TestExecute_ContinueIsolatesFailure(t *testing.T) {
	left, bad, right, leftOut, rightOut := step("left"), failing("bad"), step("right"), sink("left_out"), sink("right_out")
	g := graphOf([]*testNode{left, bad, right, leftOut, rightOut},
		"left->left_out", "bad->right", "right->right_out")

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{FailurePolicy: domain.FailurePolicyContinue})
	require.NoError(t, err)

	assert.Equal(t, domain.NodeStateCompleted, state(report, "left"))
	assert.Equal(t, domain.NodeStateCompleted, state(report, "left_out"))
	assert.Equal(t, domain.NodeStateFailed, state(report, "bad"))
	assert.Equal(t, domain.NodeStateSkipped, state(report, "right"))
	assert.Equal(t, domain.NodeStateSkipped, state(report, "right_out"))
	// skips name the root failure, not the immediate parent
	assert.Equal(t, "bad", report.Nodes["right_out"].Error.Upstream)
	assert.Zero(t, right.calls)
}

func TestExecute_HaltAllowsOneFailure(t *testing.T) {
	g := graphOf([]*testNode{failing("f1"), failing("f2"), step("ok"), sink("out")}, "ok->out")

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{FailurePolicy: domain.FailurePolicyHalt})
	require.NoError(t, err)

	assert.Equal(t, []string{"f1"}, report.NodesIn(domain.NodeStateFailed))
	assert.Equal(t, []string{"f2", "ok", "out"}, report.NodesIn(domain.NodeStateSkipped))
}

func TestExecute_CriticalNodeForcesHalt(t *testing.T) {
	crit := failing("crit")
	crit.critical = true
	g := graphOf([]*testNode{crit, step("other"), sink("out")}, "other->out")

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{FailurePolicy: domain.FailurePolicyContinue})
	require.NoError(t, err)

	assert.Equal(t, domain.NodeStateSkipped, state(report, "other"))
	assert.Equal(t, domain.NodeStateSkipped, state(report, "out"))
}

func TestExecute_MissingRequiredInput(t *testing.T) {
	g := loadWorkflow(t, failingLLM, `{"nodes": {"X": {"kind": "ai_model"}, "O": {"kind": "output"}}, "edges": [{"from": ["X", "text"], "to": ["O", "text"]}]}`)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.NodeStateFailed, state(report, "X"))
	assert.Equal(t, domain.KindMissingInput, report.Nodes["X"].Error.Kind)
	assert.Equal(t, domain.NodeStateSkipped, state(report, "O"))
}

func TestExecute_PanicIsRecorded(t *testing.T) {
	p := step("p")
	p.fn = func(context.Context, domain.Values) (domain.Values, error) {
		panic("unexpected")
	}
	g := graphOf([]*testNode{p})

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.NodeStateFailed, state(report, "p"))
	assert.Equal(t, domain.KindInternal, report.Nodes["p"].Error.Kind)
	assert.Contains(t, report.Nodes["p"].Error.Message, "unexpected")
}

// --- cancellation ---

func TestExecute_CancelledBeforeStart(t *testing.T) {
	a := step("a")
	g := graphOf([]*testNode{a, sink("out")}, "a->out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newExecutor().Execute(ctx, g, nil, domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "out"}, report.NodesIn(domain.NodeStateCancelled))
	assert.Equal(t, domain.KindCancelled, report.Nodes["a"].Error.Kind)
	assert.Zero(t, a.calls)
	assert.False(t, report.Success)
	assert.Nil(t, report.FinalOutput)
}

func TestExecute_CancelDuringNode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blocker := step("blocker")
	blocker.fn = func(ctx context.Context, _ domain.Values) (domain.Values, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	after := sink("after")
	g := graphOf([]*testNode{step("first"), blocker, after}, "first->blocker", "blocker->after")

	report, err := newExecutor().Execute(ctx, g, nil, domain.Options{FailurePolicy: domain.FailurePolicyContinue})
	require.NoError(t, err)

	assert.Equal(t, domain.NodeStateCompleted, state(report, "first"))
	assert.Equal(t, domain.NodeStateCancelled, state(report, "blocker"))
	assert.Equal(t, domain.NodeStateCancelled, state(report, "after"))
	assert.Zero(t, after.calls)
}

func TestExecute_RunDeadlineCancelsNode(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	waiter := step("waiter")
	waiter.fn = func(ctx context.Context, _ domain.Values) (domain.Values, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	g := graphOf([]*testNode{waiter, sink("out")}, "waiter->out")

	report, err := newExecutor().Execute(ctx, g, nil, domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.NodeStateCancelled, state(report, "waiter"))
	assert.Equal(t, domain.KindCancelled, report.Nodes["waiter"].Error.Kind)
	assert.Equal(t, domain.NodeStateCancelled, state(report, "out"))
	assert.Empty(t, report.NodesIn(domain.NodeStateFailed))
}

// --- parallel mode ---

func TestExecute_ParallelRunsSiblingsConcurrently(t *testing.T) {
	aStarted, bStarted := make(chan struct{}), make(chan struct{})
	rendezvous := func(id string, mine, other chan struct{}) *testNode {
		n := step(id)
		n.fn = func(ctx context.Context, _ domain.Values) (domain.Values, error) {
			close(mine)
			select {
			case <-other:
				return domain.Values{"out": id}, nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("sibling never started")
			}
		}
		return n
	}
	g := graphOf([]*testNode{rendezvous("a", aStarted, bStarted), rendezvous("b", bStarted, aStarted), sink("out")},
		"a->out", "b->out")

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{Parallel: true, MaxParallel: 2})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, domain.Values{"a": "a", "b": "b"}, report.Nodes["out"].Inputs)
}

func TestExecute_ParallelMatchesSequential(t *testing.T) {
	seq, err := newExecutor().Execute(context.Background(), loadWorkflow(t, failingLLM, diamond), nil,
		domain.Options{FailurePolicy: domain.FailurePolicyContinue})
	require.NoError(t, err)

	par, err := newExecutor().Execute(context.Background(), loadWorkflow(t, failingLLM, diamond), nil,
		domain.Options{FailurePolicy: domain.FailurePolicyContinue, Parallel: true})
	require.NoError(t, err)

	assert.Equal(t, seq.Success, par.Success)
	assert.Equal(t, seq.FinalOutput, par.FinalOutput)
	for id, nr := range seq.Nodes {
		assert.Equal(t, nr.State, par.Nodes[id].State, id)
	}
	assert.ElementsMatch(t, seq.ExecutionOrder, par.ExecutionOrder)
}

func TestExecute_ParallelHaltCancelsSiblings(t *testing.T) {
	slow := step("slow")
	slow.fn = func(ctx context.Context, _ domain.Values) (domain.Values, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return domain.Values{"out": "slow"}, nil
		}
	}
	bad := failing("bad")
	bad.fn = func(context.Context, domain.Values) (domain.Values, error) {
		time.Sleep(10 * time.Millisecond)
		return nil, errors.New("boom")
	}
	g := graphOf([]*testNode{slow, bad, sink("out")}, "slow->out")

	start := time.Now()
	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{Parallel: true, FailurePolicy: domain.FailurePolicyHalt})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Equal(t, []string{"bad"}, report.NodesIn(domain.NodeStateFailed))
	assert.Equal(t, domain.NodeStateCancelled, state(report, "slow"))
	assert.Equal(t, domain.NodeStateSkipped, state(report, "out"))
}

// --- output selection and wiring ---

func TestExecute_PrimaryOutputWins(t *testing.T) {
	g := loadWorkflow(t, nil, `{
	  "nodes": {
	    "A": {"kind": "text_input", "config": {"default_text": "hi"}},
	    "main": {"kind": "output", "config": {"primary": true}},
	    "debug": {"kind": "output", "config": {"format": "structured"}}
	  },
	  "edges": [
	    {"from": ["A", "text"], "to": ["main", "text"]},
	    {"from": ["A", "kind_tag"], "to": ["debug", "tag"]}
	  ]
	}`)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, []string{"A", "main", "debug"}, report.ExecutionOrder)
	assert.Equal(t, "hi", report.FinalOutput["output"])
}

func TestExecute_LastOutputWithoutPrimary(t *testing.T) {
	g := loadWorkflow(t, nil, `{
	  "nodes": {
	    "A": {"kind": "text_input", "config": {"default_text": "hi"}},
	    "first": {"kind": "output"},
	    "second": {"kind": "output", "config": {"format": "json"}}
	  },
	  "edges": [
	    {"from": ["A", "text"], "to": ["first", "text"]},
	    {"from": ["A", "text"], "to": ["second", "text"]}
	  ]
	}`)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)
	assert.Equal(t, "json", report.FinalOutput["format"])
}

func TestExecute_WildcardBundle(t *testing.T) {
	g := loadWorkflow(t, nil, `{
	  "nodes": {
	    "A": {"kind": "text_input", "config": {"default_text": "hi"}},
	    "O": {"kind": "output", "config": {"format": "structured"}}
	  },
	  "edges": [{"from": ["A", "*"], "to": ["O", "source"]}]
	}`)

	report, err := newExecutor().Execute(context.Background(), g, nil, domain.Options{})
	require.NoError(t, err)

	out := report.FinalOutput["output"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"text": "hi", "kind_tag": "text"}, out["source"])
}

func TestExecute_SourceSeedingRespectsDeclaredPorts(t *testing.T) {
	free := sink("free")
	strict := step("strict")
	strict.kind = "strict"
	strict.ports = domain.Ports{Inputs: []string{"text"}, Outputs: []string{"out"}}
	strict.fn = func(_ context.Context, in domain.Values) (domain.Values, error) {
		return domain.Values{"out": len(in)}, nil
	}
	g := graphOf([]*testNode{strict, free})

	report, err := newExecutor().Execute(context.Background(), g, domain.Values{"text": "t", "extra": 1}, domain.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.Values{"text": "t"}, report.Nodes["strict"].Inputs)
	assert.Equal(t, domain.Values{"text": "t", "extra": 1}, report.Nodes["free"].Inputs)
}

type recordingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBus) Publish(_ context.Context, _ string, e domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string, ports.EventHandler) error { return nil }

func (b *recordingBus) Unsubscribe(context.Context, string) error { return nil }

func (b *recordingBus) Close() error { return nil }

func TestExecute_PublishesLifecycleEvents(t *testing.T) {
	bus := &recordingBus{}
	exec := New(zap.NewNop(), nil, bus)

	report, err := exec.Execute(context.Background(), loadWorkflow(t, nil, linear), nil, domain.Options{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)

	var types []domain.EventType
	for _, e := range bus.events {
		assert.Equal(t, "run-1", e.RunID)
		types = append(types, e.Type)
	}
	assert.Equal(t, domain.EventTypeRunStarted, types[0])
	assert.Equal(t, domain.EventTypeRunCompleted, types[len(types)-1])
	assert.Len(t, types, 2+2*3)
}
