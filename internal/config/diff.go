package config

import "firestige.xyz/relay/internal/protocol"

// Connections returns, for every node id declared in t, the set of peer
// ids it is directly wired to.
func (t *Topology) Connections() map[protocol.NodeId][]protocol.NodeId {
	out := make(map[protocol.NodeId][]protocol.NodeId)
	for _, d := range t.Drones {
		out[d.Id] = append(out[d.Id], d.ConnectedNodeIds...)
	}
	for _, c := range t.Clients {
		out[c.Id] = append(out[c.Id], c.ConnectedDroneIds...)
	}
	for _, s := range t.Servers {
		out[s.Id] = append(out[s.Id], s.ConnectedDroneIds...)
	}
	return out
}

// ConnectionDelta is the set of peers a node gained and lost between two
// topology snapshots.
type ConnectionDelta struct {
	Added   []protocol.NodeId
	Removed []protocol.NodeId
}

// Diff compares the connection sets of old and next and reports, per node
// id present in either, which peers were added and which were removed.
// A node present only in next (a brand new node) reports every one of its
// peers as added; a node present only in old reports every peer as
// removed. It never reports a node's own id changing, only its edges.
func Diff(old, next *Topology) map[protocol.NodeId]ConnectionDelta {
	oldConns := old.Connections()
	nextConns := next.Connections()

	ids := make(map[protocol.NodeId]bool)
	for id := range oldConns {
		ids[id] = true
	}
	for id := range nextConns {
		ids[id] = true
	}

	deltas := make(map[protocol.NodeId]ConnectionDelta)
	for id := range ids {
		before := toSet(oldConns[id])
		after := toSet(nextConns[id])

		var delta ConnectionDelta
		for peer := range after {
			if !before[peer] {
				delta.Added = append(delta.Added, peer)
			}
		}
		for peer := range before {
			if !after[peer] {
				delta.Removed = append(delta.Removed, peer)
			}
		}
		if len(delta.Added) > 0 || len(delta.Removed) > 0 {
			deltas[id] = delta
		}
	}
	return deltas
}

func toSet(ids []protocol.NodeId) map[protocol.NodeId]bool {
	set := make(map[protocol.NodeId]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
