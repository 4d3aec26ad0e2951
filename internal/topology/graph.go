package topology

import "firestige.xyz/relay/internal/protocol"

// Graph is the labeled undirected simple graph of known nodes (spec.md
// §3): self-loops are forbidden and at most one edge exists per unordered
// pair. Nodes are value-typed and owned by the Graph; routes (see
// internal/routing) hold ids only, never node references.
type Graph struct {
	nodes map[protocol.NodeId]Node
	edges map[protocol.NodeId]map[protocol.NodeId]struct{}
}

// New returns a Graph seeded with a single self node.
func New(self Node) *Graph {
	g := &Graph{
		nodes: map[protocol.NodeId]Node{self.Id: self},
		edges: map[protocol.NodeId]map[protocol.NodeId]struct{}{self.Id: {}},
	}
	return g
}

// Node returns the stored node for id.
func (g *Graph) Node(id protocol.NodeId) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// AddNode inserts incoming, or merges it into the existing node per
// spec.md §4.C's merge rule when one is already known.
func (g *Graph) AddNode(incoming Node) {
	existing, ok := g.nodes[incoming.Id]
	if !ok {
		g.nodes[incoming.Id] = incoming
		if g.edges[incoming.Id] == nil {
			g.edges[incoming.Id] = make(map[protocol.NodeId]struct{})
		}
		return
	}
	if existing.IsOtherUseful(incoming) {
		existing.Merge(incoming)
		g.nodes[incoming.Id] = existing
	}
}

// SetNode forcibly overwrites id's stored node, bypassing the merge rule,
// preserving any existing edges. Used to apply a direct tag change (e.g.
// marking a host Unwanted) that the merge rule would otherwise refuse.
func (g *Graph) SetNode(n Node) {
	g.nodes[n.Id] = n
	if g.edges[n.Id] == nil {
		g.edges[n.Id] = make(map[protocol.NodeId]struct{})
	}
}

// RemoveNode drops id and every edge touching it.
func (g *Graph) RemoveNode(id protocol.NodeId) {
	for other := range g.edges[id] {
		delete(g.edges[other], id)
	}
	delete(g.edges, id)
	delete(g.nodes, id)
}

// AddUndirectedEdge upserts the edge {a, b} idempotently. A self-loop
// (a == b) is rejected, per spec.md §3's invariant.
func (g *Graph) AddUndirectedEdge(a, b protocol.NodeId) {
	if a == b {
		return
	}
	if g.edges[a] == nil {
		g.edges[a] = make(map[protocol.NodeId]struct{})
	}
	if g.edges[b] == nil {
		g.edges[b] = make(map[protocol.NodeId]struct{})
	}
	g.edges[a][b] = struct{}{}
	g.edges[b][a] = struct{}{}
}

// RemoveUndirectedEdge drops the edge {a, b} if present.
func (g *Graph) RemoveUndirectedEdge(a, b protocol.NodeId) {
	if g.edges[a] != nil {
		delete(g.edges[a], b)
	}
	if g.edges[b] != nil {
		delete(g.edges[b], a)
	}
}

// Adjacents returns id's neighbors.
func (g *Graph) Adjacents(id protocol.NodeId) []protocol.NodeId {
	neighbors := g.edges[id]
	out := make([]protocol.NodeId, 0, len(neighbors))
	for n := range neighbors {
		out = append(out, n)
	}
	return out
}

// HasEdge reports whether {a, b} is a stored edge.
func (g *Graph) HasEdge(a, b protocol.NodeId) bool {
	if g.edges[a] == nil {
		return false
	}
	_, ok := g.edges[a][b]
	return ok
}

// Nodes returns every stored node, in no particular order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Clear resets the graph to hold only self.
func (g *Graph) Clear(self Node) {
	g.nodes = map[protocol.NodeId]Node{self.Id: self}
	g.edges = map[protocol.NodeId]map[protocol.NodeId]struct{}{self.Id: {}}
}
