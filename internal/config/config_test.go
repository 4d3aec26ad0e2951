package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/relay/internal/protocol"
)

func writeTmpTopology(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "topology.toml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadValidTopology(t *testing.T) {
	topo, err := Load(writeTmpTopology(t, `
[[drone]]
id = 1
connected_node_ids = [0, 2]
pdr = 0.1

[[client]]
id = 0
connected_drone_ids = [1]

[[server]]
id = 2
connected_drone_ids = [1]
`))
	require.NoError(t, err)

	require.Len(t, topo.Drones, 1)
	assert.Equal(t, protocol.NodeId(1), topo.Drones[0].Id)
	assert.Equal(t, float32(0.1), topo.Drones[0].Pdr)
	require.Len(t, topo.Clients, 1)
	assert.Equal(t, []protocol.NodeId{1}, topo.Clients[0].ConnectedDroneIds)
	require.Len(t, topo.Servers, 1)
}

func TestLoadAppliesLoggerDefault(t *testing.T) {
	topo, err := Load(writeTmpTopology(t, `
[[client]]
id = 0
connected_drone_ids = []
`))
	require.NoError(t, err)
	assert.Equal(t, "info", topo.Logger.Level)
}

func TestLoadRejectsDuplicateNodeId(t *testing.T) {
	_, err := Load(writeTmpTopology(t, `
[[client]]
id = 0
connected_drone_ids = []

[[server]]
id = 0
connected_drone_ids = []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}

func TestLoadRejectsUnknownConnection(t *testing.T) {
	_, err := Load(writeTmpTopology(t, `
[[client]]
id = 0
connected_drone_ids = [9]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
