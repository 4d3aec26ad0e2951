package host

import "firestige.xyz/relay/internal/protocol"

// CommandKind tags which field of a Command is meaningful.
type CommandKind int

const (
	// CmdAddConnectedDrone wires a new outbound packet channel to a
	// neighboring node and records the adjacency in the host's topology.
	CmdAddConnectedDrone CommandKind = iota
	// CmdRemoveConnectedDrone tears down an adjacency.
	CmdRemoveConnectedDrone
	// CmdCrash tells the host to stop cooperatively at the top of its
	// next event loop iteration.
	CmdCrash
)

// PacketSender is the send half of a point-to-point packet channel to one
// neighboring node.
type PacketSender = chan<- protocol.Packet

// Command is a message the simulation harness sends a host to reconfigure
// or terminate it.
type Command struct {
	Kind   CommandKind
	NodeId protocol.NodeId // meaningful for CmdAddConnectedDrone/CmdRemoveConnectedDrone
	Sender PacketSender    // meaningful for CmdAddConnectedDrone
}

// AddConnectedDrone builds a CmdAddConnectedDrone command.
func AddConnectedDrone(id protocol.NodeId, sender PacketSender) Command {
	return Command{Kind: CmdAddConnectedDrone, NodeId: id, Sender: sender}
}

// RemoveConnectedDrone builds a CmdRemoveConnectedDrone command.
func RemoveConnectedDrone(id protocol.NodeId) Command {
	return Command{Kind: CmdRemoveConnectedDrone, NodeId: id}
}

// Crash builds a CmdCrash command.
func Crash() Command {
	return Command{Kind: CmdCrash}
}
