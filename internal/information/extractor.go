// Package information derives topology graph mutations from the packets a
// host observes in flight (spec.md §4.E), grounded on
// original_source/src/application/topology/information.rs. Extraction is a
// pure function: it never touches a Graph directly, only describes the
// updates the caller (a client/server's routing.Table) should apply.
package information

import (
	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/topology"
)

// UpdateKind tags which field of an Update is meaningful.
type UpdateKind int

const (
	AddNode UpdateKind = iota
	AddEdge
	RemoveEdge
)

// Update is one graph mutation an extracted packet implies.
type Update struct {
	Kind UpdateKind
	Node topology.Node   // meaningful when Kind == AddNode
	From protocol.NodeId // meaningful when Kind == AddEdge/RemoveEdge
	To   protocol.NodeId
}

func addNode(n topology.Node) Update             { return Update{Kind: AddNode, Node: n} }
func addEdge(from, to protocol.NodeId) Update    { return Update{Kind: AddEdge, From: from, To: to} }
func removeEdge(from, to protocol.NodeId) Update { return Update{Kind: RemoveEdge, From: from, To: to} }

func edgeUpdates(hops []protocol.NodeId) []Update {
	var out []Update
	for i := 0; i+1 < len(hops); i++ {
		out = append(out, addEdge(hops[i], hops[i+1]))
	}
	return out
}

func dropLast(updates []Update) []Update {
	if len(updates) == 0 {
		return updates
	}
	return updates[:len(updates)-1]
}

// Extract derives the graph updates implied by observing packet at self
// (the observing host's own current node, used to infer the first hop's
// counterpart kind).
func Extract(pkt protocol.Packet, self topology.Node) []Update {
	switch pkt.Kind {
	case protocol.PayloadFragment:
		return fragmentUpdates(pkt.RoutingHeader, self)
	case protocol.PayloadAck:
		return ackUpdates(pkt.RoutingHeader, self)
	case protocol.PayloadNack:
		return nackUpdates(pkt.RoutingHeader, pkt.Nack, self)
	case protocol.PayloadFloodRequest:
		return pathTraceUpdates(pkt.FloodRequest.PathTrace)
	case protocol.PayloadFloodResponse:
		return pathTraceUpdates(pkt.FloodResponse.PathTrace)
	default:
		return nil
	}
}

// fragmentUpdates treats the first hop as weakly trusted (application tag
// unknown) and every later hop (but the last, dropped since it's the
// destination, already known) as a drone that just forwarded.
func fragmentUpdates(header protocol.RoutingHeader, self topology.Node) []Update {
	hops := header.Hops
	if len(hops) == 0 {
		return nil
	}
	nodes := []Update{addNode(topology.Node{Id: hops[0], Kind: self.Kind.WeakCounterpart()})}
	for _, id := range hops[1:] {
		nodes = append(nodes, addNode(topology.Node{Id: id, Kind: topology.NewDroneKindWithHistory(protocol.Forwarded)}))
	}
	nodes = dropLast(nodes)
	return append(nodes, edgeUpdates(hops)...)
}

// ackUpdates mirrors fragmentUpdates but trusts the first hop's application
// tag (the ack confirms round-trip delivery) and records no delivery
// outcome for intermediate drones (an ack alone says nothing about drop
// rate; MsgFragment's pass-through already credited them).
func ackUpdates(header protocol.RoutingHeader, self topology.Node) []Update {
	hops := header.Hops
	if len(hops) == 0 {
		return nil
	}
	nodes := []Update{addNode(topology.Node{Id: hops[0], Kind: self.Kind.StrongCounterpart()})}
	for _, id := range hops[1:] {
		nodes = append(nodes, addNode(topology.Node{Id: id, Kind: topology.NewDroneKind()}))
	}
	nodes = dropLast(nodes)
	return append(nodes, edgeUpdates(hops)...)
}

func nackUpdates(header protocol.RoutingHeader, nack protocol.Nack, self topology.Node) []Update {
	hops := header.Hops
	switch nack.Kind {
	case protocol.NackErrorInRouting:
		return nackErrorInRouting(hops, nack.Who)
	case protocol.NackDestinationIsDrone:
		return nackDestinationIsDrone(hops)
	case protocol.NackDropped:
		return nackDropped(hops)
	case protocol.NackUnexpectedRecipient:
		return nackUnexpectedRecipient(hops, nack.Who, self)
	default:
		return nil
	}
}

// nackErrorInRouting: the reporting drone's next hop was unreachable, so
// the edge to nack.Who is stale and must be removed.
func nackErrorInRouting(hops []protocol.NodeId, notConnected protocol.NodeId) []Update {
	if len(hops) == 0 {
		return nil
	}
	nodes := []Update{addNode(topology.Node{Id: hops[0], Kind: topology.NewDroneKind()})}
	for _, id := range hops[1:] {
		nodes = append(nodes, addNode(topology.Node{Id: id, Kind: topology.NewDroneKindWithHistory(protocol.Forwarded)}))
	}
	nodes = dropLast(nodes)
	updates := append(nodes, edgeUpdates(hops)...)
	return append(updates, removeEdge(hops[0], notConnected))
}

// nackDestinationIsDrone: every hop in the trace, including the first,
// forwarded successfully; the last (the drone mistakenly targeted as a
// destination) is dropped since it's already known.
func nackDestinationIsDrone(hops []protocol.NodeId) []Update {
	var nodes []Update
	for _, id := range hops {
		nodes = append(nodes, addNode(topology.Node{Id: id, Kind: topology.NewDroneKindWithHistory(protocol.Forwarded)}))
	}
	nodes = dropLast(nodes)
	return append(nodes, edgeUpdates(hops)...)
}

// nackDropped: the first hop dropped the fragment; later hops (but the
// last) forwarded it along first.
func nackDropped(hops []protocol.NodeId) []Update {
	if len(hops) == 0 {
		return nil
	}
	nodes := []Update{addNode(topology.Node{Id: hops[0], Kind: topology.NewDroneKindWithHistory(protocol.Dropped)})}
	for _, id := range hops[1:] {
		nodes = append(nodes, addNode(topology.Node{Id: id, Kind: topology.NewDroneKindWithHistory(protocol.Forwarded)}))
	}
	nodes = dropLast(nodes)
	return append(nodes, edgeUpdates(hops)...)
}

// nackUnexpectedRecipient: the first hop dropped (it handed the fragment
// to the wrong node); who is that wrong node, recorded as a host sharing
// self's own application so downstream routing can reason about it.
func nackUnexpectedRecipient(hops []protocol.NodeId, who protocol.NodeId, self topology.Node) []Update {
	if len(hops) == 0 {
		return nil
	}
	nodes := []Update{addNode(topology.Node{Id: hops[0], Kind: topology.NewDroneKindWithHistory(protocol.Dropped)})}
	for _, id := range hops[1:] {
		nodes = append(nodes, addNode(topology.Node{Id: id, Kind: topology.NewDroneKindWithHistory(protocol.Forwarded)}))
	}
	nodes = dropLast(nodes)

	otherKind := self.Kind.WeakCounterpart()
	otherKind.App = self.Kind.App
	nodes = append(nodes, addNode(topology.Node{Id: who, Kind: otherKind}))

	return append(nodes, edgeUpdates(hops)...)
}

// pathTraceUpdates handles both FloodRequest and FloodResponse: every
// entry names an id and its coarse kind, observed with full trust.
func pathTraceUpdates(trace []protocol.PathEntry) []Update {
	var nodes []Update
	ids := make([]protocol.NodeId, len(trace))
	for i, e := range trace {
		nodes = append(nodes, addNode(topology.Node{Id: e.Id, Kind: topology.NewKindFromSimple(e.Kind)}))
		ids[i] = e.Id
	}
	return append(nodes, edgeUpdates(ids)...)
}
