package routing

import (
	"sort"

	"go.uber.org/atomic"

	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/topology"
)

// Table owns a host's topology graph plus the derived, ranked routes to
// every reachable counterpart. It is the host-facing API: callers feed it
// graph mutations (AddNode/AddEdge/RemoveEdge), then CalculateRoutes to
// refresh the ranked route list, then GetBestRoute to pick one.
type Table struct {
	graph        *topology.Graph
	sourceId     protocol.NodeId
	routes       []Route
	requestCount atomic.Uint64
}

// NewTable seeds a Table with source as the sole known node.
func NewTable(source topology.Node) *Table {
	return &Table{
		graph:    topology.New(source),
		sourceId: source.Id,
	}
}

// Graph exposes the underlying topology graph, e.g. for debug dumps.
func (t *Table) Graph() *topology.Graph {
	return t.graph
}

// AddNode merges incoming into the graph per topology's merge rule.
func (t *Table) AddNode(incoming topology.Node) {
	t.graph.AddNode(incoming)
}

// AddEdge records an undirected adjacency.
func (t *Table) AddEdge(from, to protocol.NodeId) {
	t.graph.AddUndirectedEdge(from, to)
}

// RemoveEdge drops an undirected adjacency and purges any stored route
// that crossed it.
func (t *Table) RemoveEdge(from, to protocol.NodeId) {
	t.graph.RemoveUndirectedEdge(from, to)
	kept := t.routes[:0]
	for _, r := range t.routes {
		if !r.ContainsEdge(from, to) && !r.ContainsEdge(to, from) {
			kept = append(kept, r)
		}
	}
	t.routes = kept
}

// CalculateRoutes re-derives every simple path from source, keeps only
// the ones spec.md §4.D calls meaningful (exactly two hosts: source and a
// compatible-application counterpart), and sorts by ascending cost. It
// returns the number of retained routes.
func (t *Table) CalculateRoutes() int {
	t.routes = calculateRoutes(t.graph, t.sourceId)

	source, ok := t.graph.Node(t.sourceId)
	if !ok {
		t.routes = nil
		return 0
	}

	kept := t.routes[:0]
	for _, r := range t.routes {
		destId, ok := r.Destination()
		if !ok {
			continue
		}
		dest, ok := t.graph.Node(destId)
		if !ok {
			continue
		}
		if r.HostCount(t.graph) == 2 && source.IsRouteMeaningful(dest) {
			kept = append(kept, r)
		}
	}
	t.routes = kept

	sort.SliceStable(t.routes, func(i, j int) bool {
		return t.routes[i].Cost(t.graph) < t.routes[j].Cost(t.graph)
	})

	return len(t.routes)
}

// costEpsilon is the tolerance under which two route costs are treated as
// equal, mirroring float32::EPSILON in the reference's take_while check.
const costEpsilon = 0x1p-23

// GetBestRoute returns a route to destination, round-robining among the
// routes tied for lowest cost using the table's running request count.
func (t *Table) GetBestRoute(destination protocol.NodeId) (Route, bool) {
	var candidates []Route
	for _, r := range t.routes {
		if d, ok := r.Destination(); ok && d == destination {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Route{}, false
	}

	minCost := candidates[0].Cost(t.graph)
	var minimal []Route
	for _, r := range candidates {
		if r.Cost(t.graph)-minCost < costEpsilon {
			minimal = append(minimal, r)
		} else {
			break
		}
	}

	route := minimal[t.requestCount.Load()%uint64(len(minimal))]
	t.requestCount.Inc()
	return route, true
}

// UnwantedNode marks destId as Unwanted (so IsRouteMeaningful will refuse
// it from here on) and drops every currently stored route ending there.
func (t *Table) UnwantedNode(destId protocol.NodeId) {
	if n, ok := t.graph.Node(destId); ok {
		n.Kind.App = protocol.AppUnwanted
		t.graph.SetNode(n)
	}
	kept := t.routes[:0]
	for _, r := range t.routes {
		if d, ok := r.Destination(); !ok || d != destId {
			kept = append(kept, r)
		}
	}
	t.routes = kept
}

// ForgetTopology drops every known node and edge except source, and
// clears every stored route. Used when a drone's neighbor set changes
// and stale routing data can no longer be trusted.
func (t *Table) ForgetTopology() {
	source, _ := t.graph.Node(t.sourceId)
	t.graph.Clear(source)
	t.routes = nil
}

// CanReach reports whether any stored route terminates at destination.
func (t *Table) CanReach(destination protocol.NodeId) bool {
	for _, r := range t.routes {
		if d, ok := r.Destination(); ok && d == destination {
			return true
		}
	}
	return false
}

// ReachableDestinations returns the distinct set of destinations any
// stored route currently reaches.
func (t *Table) ReachableDestinations() []protocol.NodeId {
	seen := make(map[protocol.NodeId]struct{})
	for _, r := range t.routes {
		if d, ok := r.Destination(); ok {
			seen[d] = struct{}{}
		}
	}
	out := make([]protocol.NodeId, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// extendRoute appends every adjacent, not-yet-visited node to route, one
// route per extension.
func extendRoute(graph *topology.Graph, route Route) []Route {
	last, ok := route.Destination()
	if !ok {
		return nil
	}
	var out []Route
	for _, adj := range graph.Adjacents(last) {
		if !route.Contains(adj) {
			out = append(out, route.WithAppended(adj))
		}
	}
	return out
}

// calculateRoutes enumerates every simple path starting at sourceId by
// BFS-style level expansion: level i holds every simple path of i hops,
// and expansion stops once a level produces nothing new.
func calculateRoutes(graph *topology.Graph, sourceId protocol.NodeId) []Route {
	level := []Route{NewRoute([]protocol.NodeId{sourceId})}
	all := make([]Route, 0, len(level))
	all = append(all, level...)

	for {
		var next []Route
		for _, r := range level {
			next = append(next, extendRoute(graph, r)...)
		}
		if len(next) == 0 {
			break
		}
		all = append(all, next...)
		level = next
	}

	return all
}
