package domain

import "context"

// Built-in node kind tags.
const (
	KindTextInput      = "text_input"
	KindAIModel        = "ai_model"
	KindTextProcessing = "text_processing"
	KindEmbedding      = "embedding"
	KindVectorSearch   = "vector_search"
	KindImageGen       = "image_generation"
	KindQuantum        = "quantum"
	KindFederated      = "federated"
	KindNeuromorphic   = "neuromorphic"
	KindSafety         = "safety"
	KindOutput         = "output"
)

// Ports declares the port surface of a node instance.
type Ports struct {
	Inputs []string
	// Required lists the input ports that must be bound before Execute.
	Required []string
	Outputs  []string
	// FreeForm nodes accept any input port name and, as sources, receive the
	// whole initial input bundle.
	FreeForm bool
}

// HasInput reports whether name is an accepted input port.
func (p Ports) HasInput(name string) bool {
	if p.FreeForm {
		return true
	}
	return contains(p.Inputs, name)
}

// HasOutput reports whether name is a declared output port.
func (p Ports) HasOutput(name string) bool {
	return contains(p.Outputs, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Node is a unit of work bound to its static configuration. Execute must
// honor ctx cancellation at its suspension points.
type Node interface {
	ID() string
	Kind() string
	Ports() Ports
	Execute(ctx context.Context, inputs Values) (Values, error)
}

// Factory builds a node from its id and raw configuration.
type Factory func(id string, config map[string]interface{}) (Node, error)

// CriticalNode is implemented by nodes whose failure halts the run
// regardless of the run-wide failure policy.
type CriticalNode interface {
	Critical() bool
}

// PrimarySink is implemented by sinks that may be flagged as the preferred
// source of the run's final output.
type PrimarySink interface {
	Primary() bool
}
