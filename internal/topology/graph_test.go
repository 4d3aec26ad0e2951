package topology_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/topology"
)

func TestAddNodeMergesUnknownIntoHost(t *testing.T) {
	g := topology.New(topology.Node{Id: 0, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)})
	g.AddNode(topology.Node{Id: 1, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppUnknown)})

	g.AddNode(topology.Node{Id: 1, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppChat)})
	n, ok := g.Node(1)
	require.True(t, ok)
	assert.Equal(t, protocol.AppChat, n.Kind.App)
}

func TestAddNodeRefusesUnwanted(t *testing.T) {
	g := topology.New(topology.Node{Id: 0, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)})
	g.AddNode(topology.Node{Id: 1, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppUnwanted)})

	g.AddNode(topology.Node{Id: 1, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppChat)})
	n, ok := g.Node(1)
	require.True(t, ok)
	assert.Equal(t, protocol.AppUnwanted, n.Kind.App, "Unwanted must refuse replacement")
}

func TestAddNodeDropsConflictingSimpleKind(t *testing.T) {
	g := topology.New(topology.Node{Id: 0, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)})
	g.AddNode(topology.Node{Id: 2, Kind: topology.NewDroneKind()})

	g.AddNode(topology.Node{Id: 2, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppChat)})
	n, ok := g.Node(2)
	require.True(t, ok)
	assert.Equal(t, protocol.KindDrone, n.Kind.Simple, "conflicting simple kind must be dropped, trusting existing")
}

func TestAddNodeMergesDroneHistory(t *testing.T) {
	g := topology.New(topology.Node{Id: 0, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)})
	g.AddNode(topology.Node{Id: 2, Kind: topology.NewDroneKindWithHistory(protocol.Forwarded)})
	g.AddNode(topology.Node{Id: 2, Kind: topology.NewDroneKindWithHistory(protocol.Dropped)})

	n, ok := g.Node(2)
	require.True(t, ok)
	assert.InDelta(t, 0.1, n.Kind.Cost(), 1e-9, "merged history of 2 observations is below the H/10 floor, cost should still be alpha")
}

func TestEdgesAreIdempotentAndUndirected(t *testing.T) {
	g := topology.New(topology.Node{Id: 0, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)})
	g.AddUndirectedEdge(0, 1)
	g.AddUndirectedEdge(1, 0)
	assert.True(t, g.HasEdge(0, 1))
	assert.True(t, g.HasEdge(1, 0))
	assert.ElementsMatch(t, []protocol.NodeId{1}, g.Adjacents(0))

	g.RemoveUndirectedEdge(0, 1)
	assert.False(t, g.HasEdge(0, 1))
	assert.False(t, g.HasEdge(1, 0))
}

func TestSelfLoopRejected(t *testing.T) {
	g := topology.New(topology.Node{Id: 0, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)})
	g.AddUndirectedEdge(0, 0)
	assert.Empty(t, g.Adjacents(0))
}

func TestPDRCostMonotonic(t *testing.T) {
	low := topology.NewDroneKind()
	for i := 0; i < 25; i++ {
		low.RecordDelivery(protocol.Dropped)
	}
	for i := 0; i < 225; i++ {
		low.RecordDelivery(protocol.Forwarded)
	}

	high := topology.NewDroneKind()
	for i := 0; i < 125; i++ {
		high.RecordDelivery(protocol.Dropped)
	}
	for i := 0; i < 125; i++ {
		high.RecordDelivery(protocol.Forwarded)
	}

	assert.Greater(t, high.Cost(), low.Cost())
	assert.Greater(t, low.Cost(), 0.1)
}

func TestPDRCostBelowFloorIsAlpha(t *testing.T) {
	k := topology.NewDroneKind()
	for i := 0; i < 24; i++ { // below H/10 = 25
		k.RecordDelivery(protocol.Dropped)
	}
	assert.InDelta(t, 0.1, k.Cost(), 1e-9)
}

func TestHostCostIsZero(t *testing.T) {
	k := topology.NewHostKind(protocol.KindClient, protocol.AppChat)
	assert.Equal(t, 0.0, k.Cost())
}

func TestIsRouteMeaningful(t *testing.T) {
	client := topology.Node{Id: 0, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)}
	server := topology.Node{Id: 1, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppChat)}
	assert.True(t, client.IsRouteMeaningful(server))

	unwantedServer := topology.Node{Id: 2, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppUnwanted)}
	assert.False(t, client.IsRouteMeaningful(unwantedServer))

	drone := topology.Node{Id: 3, Kind: topology.NewDroneKind()}
	assert.False(t, client.IsRouteMeaningful(drone))

	otherClient := topology.Node{Id: 4, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)}
	assert.False(t, client.IsRouteMeaningful(otherClient), "routes must connect counterparts")
}
