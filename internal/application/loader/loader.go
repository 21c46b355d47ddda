// Package loader converts workflow descriptions into validated graphs.
//
// All structural problems are diagnosed here, before any node runs:
// unknown kinds, rejected configs, dangling edges, undeclared ports,
// duplicate edge targets and cycles. The first violation is reported with
// the node (and port) it was found at.
package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/registry"
	"github.com/aescanero/autogent/internal/application/scheduler"
	"github.com/aescanero/autogent/pkg/domain"
)

// Loader builds graphs using the node factories of a registry.
type Loader struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// New creates a loader.
func New(reg *registry.Registry, logger *zap.Logger) *Loader {
	return &Loader{
		registry: reg,
		logger:   logger,
	}
}

// Load validates desc and returns the typed graph.
func (l *Loader) Load(desc *domain.Description) (*domain.Graph, error) {
	if desc == nil || desc.Nodes.Len() == 0 {
		return nil, &domain.Error{Kind: domain.KindInvalidDescription, Message: "workflow must have at least one node"}
	}

	g := domain.NewGraph()

	for _, id := range desc.Nodes.IDs() {
		spec, _ := desc.Nodes.Get(id)
		if id == "" {
			return nil, &domain.Error{Kind: domain.KindInvalidDescription, Message: "node id is required"}
		}

		node, err := l.registry.Create(spec.Kind, id, spec.Config)
		if err != nil {
			return nil, err
		}

		node, err = applyDeclaredPorts(node, spec)
		if err != nil {
			return nil, err
		}

		g.AddNode(node)
	}

	targets := make(map[domain.PortRef]domain.PortRef)
	for i, e := range desc.Edges {
		if err := l.validateEdge(g, i, e, targets); err != nil {
			return nil, err
		}
		targets[e.To] = e.From
		g.AddEdge(domain.Edge{From: e.From, To: e.To})
	}

	if _, err := scheduler.Schedule(g); err != nil {
		return nil, err
	}

	l.logger.Debug("workflow loaded",
		zap.Int("nodes", g.Len()),
		zap.Int("edges", len(desc.Edges)))

	return g, nil
}

func (l *Loader) validateEdge(g *domain.Graph, index int, e domain.EdgeSpec, targets map[domain.PortRef]domain.PortRef) error {
	src, ok := g.Node(e.From.Node)
	if !ok {
		return &domain.Error{
			Kind:    domain.KindUnknownNode,
			NodeID:  e.From.Node,
			Message: fmt.Sprintf("edge %d references unknown source node", index),
		}
	}
	dst, ok := g.Node(e.To.Node)
	if !ok {
		return &domain.Error{
			Kind:    domain.KindUnknownNode,
			NodeID:  e.To.Node,
			Message: fmt.Sprintf("edge %d references unknown destination node", index),
		}
	}

	if prev, dup := targets[e.To]; dup {
		return &domain.Error{
			Kind:    domain.KindDuplicateEdgeTarget,
			NodeID:  e.To.Node,
			Port:    e.To.Port,
			Message: fmt.Sprintf("input already fed by %s, edge %d adds %s", prev, index, e.From),
		}
	}

	if e.From.Port == domain.WildcardPort {
		if !dst.Ports().FreeForm {
			return &domain.Error{
				Kind:    domain.KindInvalidPort,
				NodeID:  e.To.Node,
				Port:    e.To.Port,
				Message: fmt.Sprintf("edge %d: whole-output bundles can only feed free-form nodes", index),
			}
		}
	} else if !src.Ports().HasOutput(e.From.Port) {
		return &domain.Error{
			Kind:    domain.KindInvalidPort,
			NodeID:  e.From.Node,
			Port:    e.From.Port,
			Message: fmt.Sprintf("edge %d: %s has no output port %q", index, src.Kind(), e.From.Port),
		}
	}

	if !dst.Ports().HasInput(e.To.Port) {
		return &domain.Error{
			Kind:    domain.KindInvalidPort,
			NodeID:  e.To.Node,
			Port:    e.To.Port,
			Message: fmt.Sprintf("edge %d: %s has no input port %q", index, dst.Kind(), e.To.Port),
		}
	}

	return nil
}
