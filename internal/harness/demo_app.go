// Package harness wires a topology.Topology into live, goroutine-backed
// drones/clients/servers for a demo run or a test — the simulation
// controller spec.md places out of core. Nothing under internal/host,
// internal/routing, internal/topology, internal/information,
// internal/session, or internal/fragment imports this package.
package harness

import (
	"fmt"

	"firestige.xyz/relay/internal/card"
	"firestige.xyz/relay/internal/host"
	"firestige.xyz/relay/internal/protocol"
)

// PingRequest is the smallest possible demo Request: a client-chosen
// sequence number round-tripped unchanged.
type PingRequest struct {
	Seq int `json:"seq"`
}

func (r PingRequest) String() string { return fmt.Sprintf("Ping(%d)", r.Seq) }

// PongResponse is PingRequest's reply, echoing the same sequence number.
type PongResponse struct {
	Seq int `json:"seq"`
}

func (r PongResponse) String() string { return fmt.Sprintf("Pong(%d)", r.Seq) }

// PingClientBehaviour drives a ping/pong client: OnResponseReceived just
// records the echo for the test or CLI caller to inspect, and its only
// cards are the three structural ones Cards returns; it has no game-content
// cards (the card content spec.md's Non-goals exclude).
type PingClientBehaviour struct {
	Received chan protocol.Message[PongResponse]
}

// NewPingClientBehaviour returns a PingClientBehaviour with a buffered
// Received channel, large enough that OnResponseReceived never blocks a
// host's event loop waiting on a slow test reader.
func NewPingClientBehaviour(bufferSize int) *PingClientBehaviour {
	return &PingClientBehaviour{Received: make(chan protocol.Message[PongResponse], bufferSize)}
}

func (b *PingClientBehaviour) ApplicationType() protocol.ApplicationType { return protocol.AppChat }

func (b *PingClientBehaviour) OnResponseReceived(resp protocol.Message[PongResponse]) {
	b.Received <- resp
}

// Cards offers three structural cards, built here with card.New, the
// narrowest set a ping client needs to explore and play: discover
// neighbors, recompute routes, and reset its topology view.
func (b *PingClientBehaviour) Cards() []card.Card[host.Client[PingRequest, PongResponse]] {
	return []card.Card[host.Client[PingRequest, PongResponse]]{
		card.New[host.Client[PingRequest, PongResponse]]("Explore", "broadcast a flood request", card.Common, func(c *host.Client[PingRequest, PongResponse]) {
			c.InitiateFlood()
		}),
		card.New[host.Client[PingRequest, PongResponse]]("Navigate", "recompute the route table", card.Common, func(c *host.Client[PingRequest, PongResponse]) {
			c.CalculateRoutes()
		}),
		card.New[host.Client[PingRequest, PongResponse]]("Forget Topology", "discard everything known beyond self", card.Rare, func(c *host.Client[PingRequest, PongResponse]) {
			c.ForgetTopology()
		}),
	}
}

// PongServerBehaviour answers every PingRequest with a PongResponse
// carrying the same sequence number.
type PongServerBehaviour struct{}

func (PongServerBehaviour) ApplicationType() protocol.ApplicationType { return protocol.AppChat }

func (PongServerBehaviour) HandleRequest(req protocol.Message[PingRequest], sourceId protocol.NodeId) protocol.Message[PongResponse] {
	return protocol.GenerateResponse[PingRequest, PongResponse](req, PongResponse{Seq: req.Content.Seq})
}
