package harness

import (
	"math/rand"

	"firestige.xyz/relay/internal/host"
	"firestige.xyz/relay/internal/protocol"
)

// Drone is the narrowest possible stand-in for the real drone forwarding
// engine spec.md places out of scope: it forwards any source-routed
// packet to its next hop, dropping a fragment with probability Pdr and
// nacking it back instead, and fans a FloodRequest out to every neighbor
// but the one it arrived from. It never reads packet contents beyond the
// routing header or path trace.
type Drone struct {
	id    protocol.NodeId
	pdr   float32
	rng   *rand.Rand
	peers map[protocol.NodeId]host.PacketSender

	commands <-chan host.Command
	packets  <-chan protocol.Packet
}

// NewDrone builds a Drone wired to its harness-owned channels. rngSeed
// lets tests pin the drop sequence; BuildTopology seeds it from the
// drone's own id.
func NewDrone(id protocol.NodeId, pdr float32, rngSeed int64, commands <-chan host.Command, packets <-chan protocol.Packet, peers map[protocol.NodeId]host.PacketSender) *Drone {
	return &Drone{
		id:       id,
		pdr:      pdr,
		rng:      rand.New(rand.NewSource(rngSeed)),
		peers:    peers,
		commands: commands,
		packets:  packets,
	}
}

// Run drives the drone until a Crash command arrives or both its channels
// close.
func (d *Drone) Run() {
	active := true
	for active {
		select {
		case cmd, ok := <-d.commands:
			if !ok {
				return
			}
			active = d.handleCommand(cmd)
		case pkt, ok := <-d.packets:
			if !ok {
				return
			}
			d.handlePacket(pkt)
		}
	}
}

func (d *Drone) handleCommand(cmd host.Command) bool {
	switch cmd.Kind {
	case host.CmdCrash:
		return false
	case host.CmdAddConnectedDrone:
		d.peers[cmd.NodeId] = cmd.Sender
	case host.CmdRemoveConnectedDrone:
		delete(d.peers, cmd.NodeId)
	}
	return true
}

func (d *Drone) handlePacket(pkt protocol.Packet) {
	switch pkt.Kind {
	case protocol.PayloadFloodRequest:
		d.floodFanOut(pkt)
	case protocol.PayloadFragment:
		if d.rng.Float32() < d.pdr {
			d.dropFragment(pkt)
			return
		}
		d.forward(pkt)
	default:
		d.forward(pkt)
	}
}

// forward advances pkt's routing header and hands it to the channel for
// its next hop, silently dropping it if there's no such channel.
func (d *Drone) forward(pkt protocol.Packet) {
	next, ok := pkt.RoutingHeader.NextHop()
	if !ok {
		return
	}
	sender, ok := d.peers[next]
	if !ok {
		return
	}
	pkt.RoutingHeader = pkt.RoutingHeader.Advance()
	sender <- pkt
}

func (d *Drone) dropFragment(pkt protocol.Packet) {
	reversed := pkt.RoutingHeader.ReversedToSource()
	d.forward(protocol.NewNackPacket(pkt.SessionId, reversed, pkt.Fragment.Index, protocol.NackDropped, d.id))
}

func (d *Drone) floodFanOut(pkt protocol.Packet) {
	req := pkt.FloodRequest
	prevHop, hasPrev := lastHop(req.PathTrace)

	trace := make([]protocol.PathEntry, len(req.PathTrace), len(req.PathTrace)+1)
	copy(trace, req.PathTrace)
	trace = append(trace, protocol.PathEntry{Id: d.id, Kind: protocol.KindDrone})

	out := protocol.NewFloodRequestPacket(pkt.SessionId, protocol.FloodRequest{
		FloodId:   req.FloodId,
		Initiator: req.Initiator,
		PathTrace: trace,
	})
	for peerId, sender := range d.peers {
		if hasPrev && peerId == prevHop {
			continue
		}
		sender <- out
	}
}

func lastHop(trace []protocol.PathEntry) (protocol.NodeId, bool) {
	if len(trace) == 0 {
		return 0, false
	}
	return trace[len(trace)-1].Id, true
}
