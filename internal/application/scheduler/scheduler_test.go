package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/autogent/pkg/domain"
)

type node struct{ id string }

func (n node) ID() string { return n.id }
func (n node) Kind() string { return "test" }
func (n node) Ports() domain.Ports { return domain.Ports{FreeForm: true, Outputs: []string{"out"}} }
func (n node) Execute(context.Context, domain.Values) (domain.Values, error) {
	return domain.Values{"out": n.id}, nil
}

func buildGraph(ids []string, edges [][2]string) *domain.Graph {
	g := domain.NewGraph()
	for _, id := range ids {
		g.AddNode(node{id: id})
	}
	for i, e := range edges {
		g.AddEdge(domain.Edge{
			From: domain.PortRef{Node: e[0], Port: "out"},
			To:   domain.PortRef{Node: e[1], Port: string(rune('a' + i))},
		})
	}
	return g
}

func TestSchedule_Linear(t *testing.T) {
	g := buildGraph([]string{"C", "B", "A"}, [][2]string{{"A", "B"}, {"B", "C"}})

	order, err := Schedule(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestSchedule_DiamondStableOrder(t *testing.T) {
	g := buildGraph(
		[]string{"A", "B", "F", "C"},
		[][2]string{{"A", "B"}, {"A", "F"}, {"B", "C"}},
	)

	order, err := Schedule(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "F", "C"}, order)
}

func TestSchedule_Deterministic(t *testing.T) {
	ids := []string{"s1", "s2", "m", "x", "y", "sink"}
	edges := [][2]string{{"s1", "m"}, {"s2", "m"}, {"m", "x"}, {"m", "y"}, {"x", "sink"}, {"y", "sink"}}

	first, err := Schedule(buildGraph(ids, edges))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := Schedule(buildGraph(ids, edges))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSchedule_RespectsEveryEdge(t *testing.T) {
	ids := []string{"e", "d", "c", "b", "a"}
	edges := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"d", "e"}, {"a", "e"}}
	g := buildGraph(ids, edges)

	order, err := Schedule(g)
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.EdgeList() {
		assert.Less(t, pos[e.From.Node], pos[e.To.Node], "edge %s -> %s", e.From, e.To)
	}
}

func TestSchedule_Cycle(t *testing.T) {
	g := buildGraph([]string{"A", "B"}, [][2]string{{"A", "B"}, {"B", "A"}})

	order, err := Schedule(g)
	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, domain.ErrGraphHasCycle))
	assert.Contains(t, err.Error(), "A")
}

func TestSchedule_CycleBehindSource(t *testing.T) {
	g := buildGraph([]string{"src", "x", "y"}, [][2]string{{"src", "x"}, {"x", "y"}, {"y", "x"}})

	_, err := Schedule(g)
	require.Error(t, err)

	e, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindGraphHasCycle, e.Kind)
	assert.Equal(t, "x", e.NodeID)
}
