package domain

// Edge is a typed wire between two ports.
type Edge struct {
	From PortRef `json:"from"`
	To   PortRef `json:"to"`
}

// Graph is the loaded, validated form of a Description. It is owned by a
// single run and must not be shared between concurrent runs.
type Graph struct {
	order      []string
	nodes      map[string]Node
	edges      map[PortRef][]PortRef
	edgeList   []Edge
	incoming   map[string][]Edge
	successors map[string][]string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]Node),
		edges:      make(map[PortRef][]PortRef),
		incoming:   make(map[string][]Edge),
		successors: make(map[string][]string),
	}
}

// AddNode appends n, keeping insertion order. The caller guarantees id
// uniqueness.
func (g *Graph) AddNode(n Node) {
	if _, exists := g.nodes[n.ID()]; !exists {
		g.order = append(g.order, n.ID())
	}
	g.nodes[n.ID()] = n
}

// AddEdge records e. The caller has already validated the endpoints.
func (g *Graph) AddEdge(e Edge) {
	g.edges[e.From] = append(g.edges[e.From], e.To)
	g.edgeList = append(g.edgeList, e)
	g.incoming[e.To.Node] = append(g.incoming[e.To.Node], e)

	for _, s := range g.successors[e.From.Node] {
		if s == e.To.Node {
			return
		}
	}
	g.successors[e.From.Node] = append(g.successors[e.From.Node], e.To.Node)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns ids in insertion order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Edges returns the (src node, src port) -> destinations mapping.
func (g *Graph) Edges() map[PortRef][]PortRef {
	return g.edges
}

// EdgeList returns the edges in insertion order.
func (g *Graph) EdgeList() []Edge {
	return g.edgeList
}

// Incoming returns edges terminating at id, in insertion order.
func (g *Graph) Incoming(id string) []Edge {
	return g.incoming[id]
}

// Successors returns the distinct direct successors of id in the order their
// first edge was added.
func (g *Graph) Successors(id string) []string {
	return g.successors[id]
}

// Predecessors returns the distinct direct predecessors of id.
func (g *Graph) Predecessors(id string) []string {
	seen := make(map[string]bool)
	var preds []string
	for _, e := range g.incoming[id] {
		if !seen[e.From.Node] {
			seen[e.From.Node] = true
			preds = append(preds, e.From.Node)
		}
	}
	return preds
}
