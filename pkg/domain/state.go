package domain

import (
	"fmt"
	"time"
)

// NodeState is the lifecycle state of a node within one run.
type NodeState string

const (
	NodeStateReady     NodeState = "ready"
	NodeStateRunning   NodeState = "running"
	NodeStateCompleted NodeState = "completed"
	NodeStateFailed    NodeState = "failed"
	NodeStateSkipped   NodeState = "skipped"
	NodeStateCancelled NodeState = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s NodeState) Terminal() bool {
	switch s {
	case NodeStateCompleted, NodeStateFailed, NodeStateSkipped, NodeStateCancelled:
		return true
	}
	return false
}

// FailurePolicy decides what happens to the rest of a run after a node fails.
type FailurePolicy string

const (
	// FailurePolicyHalt stops the run on the first failure.
	FailurePolicyHalt FailurePolicy = "halt"
	// FailurePolicyContinue keeps running nodes without failed ancestors.
	FailurePolicyContinue FailurePolicy = "continue"
)

// ParseFailurePolicy accepts "halt" and "continue". The empty string maps to halt.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", FailurePolicyHalt:
		return FailurePolicyHalt, nil
	case FailurePolicyContinue:
		return FailurePolicyContinue, nil
	default:
		return "", fmt.Errorf("unknown failure policy: %s (must be halt or continue)", s)
	}
}

// Options bundles the per-run settings.
type Options struct {
	// PerNodeTimeout bounds a single node's execution. Zero disables it.
	PerNodeTimeout time.Duration
	FailurePolicy  FailurePolicy
	// Parallel runs independent ready nodes concurrently.
	Parallel    bool
	MaxParallel int
	// RunID pre-assigns the run identifier; one is generated when empty.
	RunID string
}

// Values carries port values keyed by port name.
type Values map[string]interface{}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
