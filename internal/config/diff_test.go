package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"firestige.xyz/relay/internal/config"
	"firestige.xyz/relay/internal/protocol"
)

func TestDiffReportsAddedAndRemovedPeers(t *testing.T) {
	old := &config.Topology{
		Drones: []config.DroneConfig{{Id: 1, ConnectedNodeIds: []protocol.NodeId{0, 2}}},
	}
	next := &config.Topology{
		Drones: []config.DroneConfig{{Id: 1, ConnectedNodeIds: []protocol.NodeId{0, 3}}},
	}

	deltas := config.Diff(old, next)

	require := deltas[protocol.NodeId(1)]
	assert.ElementsMatch(t, []protocol.NodeId{3}, require.Added)
	assert.ElementsMatch(t, []protocol.NodeId{2}, require.Removed)
}

func TestDiffReportsNothingWhenUnchanged(t *testing.T) {
	topo := &config.Topology{
		Drones: []config.DroneConfig{{Id: 1, ConnectedNodeIds: []protocol.NodeId{0, 2}}},
	}

	deltas := config.Diff(topo, topo)

	assert.Empty(t, deltas)
}
