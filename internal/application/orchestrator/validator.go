package orchestrator

import (
	"github.com/aescanero/autogent/pkg/domain"
)

// Validator enforces service limits on workflow descriptions before they
// reach the loader
type Validator struct {
	maxNodes int
	maxEdges int
}

// NewValidator creates a validator. Non-positive limits are unbounded.
func NewValidator(maxNodes, maxEdges int) *Validator {
	return &Validator{maxNodes: maxNodes, maxEdges: maxEdges}
}

// Validate checks description size limits
func (v *Validator) Validate(desc *domain.Description) error {
	if desc == nil {
		return domain.NewError(domain.KindInvalidDescription, "", "description is nil")
	}

	if n := desc.Nodes.Len(); v.maxNodes > 0 && n > v.maxNodes {
		return domain.NewError(domain.KindInvalidDescription, "",
			"workflow has %d nodes, limit is %d", n, v.maxNodes)
	}

	if n := len(desc.Edges); v.maxEdges > 0 && n > v.maxEdges {
		return domain.NewError(domain.KindInvalidDescription, "",
			"workflow has %d edges, limit is %d", n, v.maxEdges)
	}

	return nil
}
