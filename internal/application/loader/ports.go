package loader

import (
	"github.com/aescanero/autogent/pkg/domain"
)

// declaredNode narrows a node's ports to those listed in its description.
type declaredNode struct {
	domain.Node
	ports domain.Ports
}

func (d *declaredNode) Ports() domain.Ports { return d.ports }

func (d *declaredNode) Critical() bool {
	c, ok := d.Node.(domain.CriticalNode)
	return ok && c.Critical()
}

func (d *declaredNode) Primary() bool {
	p, ok := d.Node.(domain.PrimarySink)
	return ok && p.Primary()
}

// applyDeclaredPorts checks the optional inputs/outputs lists of spec
// against what the kind supports. Declared lists restrict the node.
func applyDeclaredPorts(node domain.Node, spec domain.NodeSpec) (domain.Node, error) {
	if len(spec.Inputs) == 0 && len(spec.Outputs) == 0 {
		return node, nil
	}

	ports := node.Ports()
	for _, in := range spec.Inputs {
		if !ports.HasInput(in) {
			return nil, &domain.Error{
				Kind:    domain.KindInvalidPort,
				NodeID:  node.ID(),
				Port:    in,
				Message: "declared input not supported by kind " + node.Kind(),
			}
		}
	}
	for _, out := range spec.Outputs {
		if !ports.HasOutput(out) {
			return nil, &domain.Error{
				Kind:    domain.KindInvalidPort,
				NodeID:  node.ID(),
				Port:    out,
				Message: "declared output not supported by kind " + node.Kind(),
			}
		}
	}

	narrowed := ports
	if len(spec.Inputs) > 0 {
		narrowed.Inputs = append([]string(nil), spec.Inputs...)
		narrowed.FreeForm = false
		var required []string
		for _, r := range ports.Required {
			for _, in := range spec.Inputs {
				if r == in {
					required = append(required, r)
				}
			}
		}
		narrowed.Required = required
	}
	if len(spec.Outputs) > 0 {
		narrowed.Outputs = append([]string(nil), spec.Outputs...)
	}

	return &declaredNode{Node: node, ports: narrowed}, nil
}
