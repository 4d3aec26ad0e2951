// Package config loads the TOML topology description a harness boots
// from: the set of drones, clients, and servers and how they're wired
// together. Grounded on the teacher's internal/otus/config, generalized
// from its pipeline/capture/sender shape to spec.md §6's
// drone/client/server tables.
package config

import "firestige.xyz/relay/internal/protocol"

// Topology is the root of a parsed topology file.
type Topology struct {
	Logger  LoggerConfig   `mapstructure:"log"`
	Drones  []DroneConfig  `mapstructure:"drone"`
	Clients []ClientConfig `mapstructure:"client"`
	Servers []ServerConfig `mapstructure:"server"`
}

// DroneConfig describes one drone: its directly connected neighbors
// (any node kind) and its packet drop rate.
type DroneConfig struct {
	Id               protocol.NodeId   `mapstructure:"id"`
	ConnectedNodeIds []protocol.NodeId `mapstructure:"connected_node_ids"`
	Pdr              float32           `mapstructure:"pdr"`
}

// ClientConfig describes one client and the drones it's directly wired to.
type ClientConfig struct {
	Id                protocol.NodeId   `mapstructure:"id"`
	ConnectedDroneIds []protocol.NodeId `mapstructure:"connected_drone_ids"`
}

// ServerConfig describes one server and the drones it's directly wired to.
type ServerConfig struct {
	Id                protocol.NodeId   `mapstructure:"id"`
	ConnectedDroneIds []protocol.NodeId `mapstructure:"connected_drone_ids"`
}

// LoggerConfig mirrors the shape of the teacher's log.LoggerConfig,
// trimmed to what internal/log.Configure actually takes.
type LoggerConfig struct {
	Level    string      `mapstructure:"level"`
	Prefixed bool        `mapstructure:"prefixed"`
	File     *FileConfig `mapstructure:"file"`
}

// FileConfig is the optional rotating file appender.
type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// NodeIds returns every node id declared anywhere in the topology.
func (t *Topology) NodeIds() []protocol.NodeId {
	ids := make([]protocol.NodeId, 0, len(t.Drones)+len(t.Clients)+len(t.Servers))
	for _, d := range t.Drones {
		ids = append(ids, d.Id)
	}
	for _, c := range t.Clients {
		ids = append(ids, c.Id)
	}
	for _, s := range t.Servers {
		ids = append(ids, s.Id)
	}
	return ids
}

// Validate checks the structural invariants a harness relies on: every
// node id is declared once, and every connection names a node that
// actually exists.
func (t *Topology) Validate() error {
	seen := make(map[protocol.NodeId]bool)
	for _, id := range t.NodeIds() {
		if seen[id] {
			return &DuplicateNodeError{Id: id}
		}
		seen[id] = true
	}
	for _, d := range t.Drones {
		for _, peer := range d.ConnectedNodeIds {
			if !seen[peer] {
				return &UnknownNodeError{Id: peer, ReferencedBy: d.Id}
			}
		}
	}
	for _, c := range t.Clients {
		for _, peer := range c.ConnectedDroneIds {
			if !seen[peer] {
				return &UnknownNodeError{Id: peer, ReferencedBy: c.Id}
			}
		}
	}
	for _, s := range t.Servers {
		for _, peer := range s.ConnectedDroneIds {
			if !seen[peer] {
				return &UnknownNodeError{Id: peer, ReferencedBy: s.Id}
			}
		}
	}
	return nil
}
