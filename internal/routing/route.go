// Package routing enumerates and ranks source routes over the topology
// graph a host maintains (spec.md §4.D), grounded on
// original_source/src/application/routing.rs.
package routing

import (
	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/topology"
)

// Route is an ordered sequence of hop ids, source first, destination last.
type Route struct {
	hops []protocol.NodeId
}

// NewRoute wraps hops as a Route.
func NewRoute(hops []protocol.NodeId) Route {
	cp := make([]protocol.NodeId, len(hops))
	copy(cp, hops)
	return Route{hops: cp}
}

// Cost sums each hop's node cost as looked up in graph.
func (r Route) Cost(graph *topology.Graph) float64 {
	total := 0.0
	for _, id := range r.hops {
		if n, ok := graph.Node(id); ok {
			total += n.Kind.Cost()
		}
	}
	return total
}

// Source is the route's first hop.
func (r Route) Source() (protocol.NodeId, bool) {
	if len(r.hops) == 0 {
		return 0, false
	}
	return r.hops[0], true
}

// Destination is the route's last hop.
func (r Route) Destination() (protocol.NodeId, bool) {
	if len(r.hops) == 0 {
		return 0, false
	}
	return r.hops[len(r.hops)-1], true
}

// Hops returns the route's hop sequence.
func (r Route) Hops() []protocol.NodeId {
	out := make([]protocol.NodeId, len(r.hops))
	copy(out, r.hops)
	return out
}

// WithAppended returns a new route with lastHop appended.
func (r Route) WithAppended(lastHop protocol.NodeId) Route {
	hops := make([]protocol.NodeId, len(r.hops), len(r.hops)+1)
	copy(hops, r.hops)
	hops = append(hops, lastHop)
	return Route{hops: hops}
}

// Contains reports whether id already appears in the route, used to keep
// enumerated paths simple (no repeated node).
func (r Route) Contains(id protocol.NodeId) bool {
	for _, h := range r.hops {
		if h == id {
			return true
		}
	}
	return false
}

// ContainsEdge reports whether the directed step from->to appears
// consecutively in the route.
func (r Route) ContainsEdge(from, to protocol.NodeId) bool {
	for i := 0; i+1 < len(r.hops); i++ {
		if r.hops[i] == from && r.hops[i+1] == to {
			return true
		}
	}
	return false
}

// ToSourceHeader builds the wire RoutingHeader for this route.
func (r Route) ToSourceHeader() protocol.RoutingHeader {
	return protocol.NewSourceRoute(r.hops)
}

// HostCount counts hops whose stored Kind isn't a drone.
func (r Route) HostCount(graph *topology.Graph) int {
	count := 0
	for _, id := range r.hops {
		if n, ok := graph.Node(id); ok && n.Kind.Simple != protocol.KindDrone {
			count++
		}
	}
	return count
}
