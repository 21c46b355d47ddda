// Package scheduler computes the execution order of a workflow graph.
package scheduler

import (
	"strings"

	"github.com/aescanero/autogent/pkg/domain"
)

// Schedule returns a topological order of g using Kahn's algorithm.
//
// Source nodes are queued in node insertion order and successors in the
// order their first edge was added, so the same description always yields
// the same order. If a cycle exists the error is GraphHasCycle and names the
// nodes that could not be ordered.
func Schedule(g *domain.Graph) ([]string, error) {
	ids := g.NodeIDs()

	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = len(g.Predecessors(id))
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, succ := range g.Successors(id) {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) < len(ids) {
		var residual []string
		for _, id := range ids {
			if inDegree[id] > 0 {
				residual = append(residual, id)
			}
		}
		return nil, &domain.Error{
			Kind:    domain.KindGraphHasCycle,
			NodeID:  residual[0],
			Message: "cycle among nodes: " + strings.Join(residual, ", "),
		}
	}

	return order, nil
}
