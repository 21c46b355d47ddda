package domain

import "time"

// NodeReport is the per-node section of a run report.
type NodeReport struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	State           NodeState  `json:"state"`
	DurationSeconds float64    `json:"duration_seconds"`
	Inputs          Values     `json:"inputs,omitempty"`
	Outputs         Values     `json:"outputs,omitempty"`
	Error           *NodeError `json:"error,omitempty"`
}

// RunReport fully describes the outcome of one run.
type RunReport struct {
	RunID           string                 `json:"run_id"`
	Sequence        uint64                 `json:"sequence"`
	Success         bool                   `json:"success"`
	StartedAt       time.Time              `json:"started_at"`
	DurationSeconds float64                `json:"duration_seconds"`
	Policy          FailurePolicy          `json:"failure_policy"`
	Nodes           map[string]*NodeReport `json:"per_node"`
	ExecutionOrder  []string               `json:"execution_order"`
	FinalOutput     Values                 `json:"final_output"`
}

// NodesIn returns the ids of nodes in the given state, in execution order.
func (r *RunReport) NodesIn(state NodeState) []string {
	var ids []string
	for _, id := range r.ExecutionOrder {
		if n, ok := r.Nodes[id]; ok && n.State == state {
			ids = append(ids, id)
		}
	}
	return ids
}
