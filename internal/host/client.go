package host

import (
	"fmt"

	"go.uber.org/multierr"

	"firestige.xyz/relay/internal/card"
	"firestige.xyz/relay/internal/ids"
	"firestige.xyz/relay/internal/information"
	"firestige.xyz/relay/internal/log"
	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/routing"
	"firestige.xyz/relay/internal/session"
	"firestige.xyz/relay/internal/topology"
)

// ClientBehaviour is the capability set a client host is parameterized
// over: what application it declares, how it reacts to an unsolicited
// response, and what turn-action cards it offers a player. Req/Resp are
// the concrete request/response content types the application layer
// defines (e.g. a chat client's ChatRequest/ChatResponse).
type ClientBehaviour[Req, Resp any] interface {
	ApplicationType() protocol.ApplicationType
	OnResponseReceived(resp protocol.Message[Resp])
	Cards() []card.Card[Client[Req, Resp]]
}

// Client is a client host: it originates requests, reassembles responses,
// and participates in flood discovery and card-driven play.
type Client[Req, Resp any] struct {
	id        protocol.NodeId
	behaviour ClientBehaviour[Req, Resp]

	assembler    *session.Assembler[Resp]
	disassembler *session.Disassembler[Req]
	routes       *routing.Table

	events   chan<- Event
	commands <-chan Command
	packets  <-chan protocol.Packet
	peers    map[protocol.NodeId]PacketSender
	cards    *card.Channel[Client[Req, Resp]]

	lifecycle *Lifecycle
}

// NewClient builds a Client wired to its harness-owned channels.
func NewClient[Req, Resp any](
	id protocol.NodeId,
	behaviour ClientBehaviour[Req, Resp],
	events chan<- Event,
	commands <-chan Command,
	packets <-chan protocol.Packet,
	peers map[protocol.NodeId]PacketSender,
	cards *card.Channel[Client[Req, Resp]],
) *Client[Req, Resp] {
	self := topology.Node{Id: id, Kind: topology.NewHostKind(protocol.KindClient, behaviour.ApplicationType())}
	routes := routing.NewTable(self)
	for peer := range peers {
		routes.AddEdge(id, peer)
	}
	return &Client[Req, Resp]{
		id:           id,
		behaviour:    behaviour,
		assembler:    session.NewAssembler[Resp](),
		disassembler: session.NewDisassembler[Req](),
		routes:       routes,
		events:       events,
		commands:     commands,
		packets:      packets,
		peers:        peers,
		cards:        cards,
		lifecycle:    NewLifecycle(),
	}
}

// Id returns the client's node id.
func (c *Client[Req, Resp]) Id() protocol.NodeId { return c.id }

// State reports the client's current lifecycle stage.
func (c *Client[Req, Resp]) State() State { return c.lifecycle.Current() }

// Routes exposes the client's route table for introspection (debug
// dumps, tests); it is never mutated from outside the client's own event
// loop.
func (c *Client[Req, Resp]) Routes() *routing.Table { return c.routes }

// newSessionId mints a fresh globally unique session id for an outbound
// request.
func (c *Client[Req, Resp]) newSessionId() uint64 {
	return ids.NewSessionId(c.disassembler.NewSessionId(), c.id)
}

// SendRequest disassembles and forwards request if a route to its
// destination is already known, returning false otherwise without
// sending anything.
func (c *Client[Req, Resp]) SendRequest(request protocol.Message[Req]) bool {
	if !c.routes.CanReach(request.DestinationId) {
		return false
	}
	c.events <- MessageSent(request.String())

	frags, err := c.disassembler.Disassembly(request)
	if err != nil {
		return false
	}
	for _, frag := range frags {
		header, ok := c.routes.GetBestRoute(request.DestinationId)
		if !ok {
			return false
		}
		c.forward(protocol.NewFragmentPacket(request.SessionId, header.ToSourceHeader(), frag))
	}
	return true
}

// InitiateFlood broadcasts a FloodRequest to every directly connected peer.
func (c *Client[Req, Resp]) InitiateFlood() {
	floodId := ids.NewFloodId()
	c.events <- FloodInitiated(c.id, floodId)

	req := protocol.FloodRequest{
		FloodId:   floodId,
		Initiator: c.id,
		PathTrace: []protocol.PathEntry{{Id: c.id, Kind: protocol.KindClient}},
	}
	pkt := protocol.NewFloodRequestPacket(c.newSessionId(), req)
	for _, sender := range c.peers {
		sender <- pkt
	}
}

// forward advances pkt's routing header and hands it to the channel for
// its next hop, silently dropping it if there's no such channel (a stale
// route to a now-disconnected neighbor).
func (c *Client[Req, Resp]) forward(pkt protocol.Packet) {
	next, ok := pkt.RoutingHeader.NextHop()
	if !ok {
		return
	}
	sender, ok := c.peers[next]
	if !ok {
		return
	}
	pkt.RoutingHeader = pkt.RoutingHeader.Advance()
	sender <- pkt
}

// ForgetTopology discards everything known about the network beyond this
// client itself.
func (c *Client[Req, Resp]) ForgetTopology() {
	c.routes.ForgetTopology()
}

// CalculateRoutes recomputes the ranked route table and returns how many
// routes survived.
func (c *Client[Req, Resp]) CalculateRoutes() int {
	return c.routes.CalculateRoutes()
}

// Run drives the client's event loop until a Crash command arrives. A
// closed packet or command channel does not end the loop.
func (c *Client[Req, Resp]) Run() {
	c.lifecycle.Start()
	for c.lifecycle.IsActive() {
		select {
		case cmd, ok := <-c.commands:
			if ok {
				c.handleCommand(cmd)
			}
		case pkt, ok := <-c.packets:
			if ok {
				c.HandlePacketNormal(pkt)
			}
		case played, ok := <-c.cards.Recv():
			if ok {
				played.Activate(c)
				<-c.cards.Recv() // completion handshake
			}
		}
	}
	if err := c.Shutdown(); err != nil {
		log.GetLogger().WithField("client", c.id).WithError(err).Warn("client shutdown had errors")
	}
	c.lifecycle.Finish()
}

// Shutdown closes every connected drone's outbound channel so its event
// loop observes this client as gone rather than blocking forever on a
// send nobody will read, and closes the card channel. Each channel is
// this client's own send end, so closing it is safe; a peer already torn
// down concurrently can leave it pre-closed, which close surfaces as a
// panic this recovers into an error. Failures across peers accumulate
// instead of stopping at the first.
func (c *Client[Req, Resp]) Shutdown() error {
	var errs error
	for id, sender := range c.peers {
		if err := closeSender(sender); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("peer %d: %w", id, err))
		}
	}
	c.cards.Close()
	return errs
}

func closeSender(sender PacketSender) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel already closed: %v", r)
		}
	}()
	close(sender)
	return nil
}

func (c *Client[Req, Resp]) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdCrash:
		c.lifecycle.RequestStop()
	case CmdAddConnectedDrone:
		c.routes.AddEdge(c.id, cmd.NodeId)
		c.peers[cmd.NodeId] = cmd.Sender
	case CmdRemoveConnectedDrone:
		c.routes.RemoveEdge(c.id, cmd.NodeId)
		delete(c.peers, cmd.NodeId)
	}
}

// HandlePacketNormal applies the default (non-waiting) handling for one
// inbound packet: update the topology, then dispatch by payload kind.
func (c *Client[Req, Resp]) HandlePacketNormal(pkt protocol.Packet) {
	c.applyInformation(pkt)

	switch pkt.Kind {
	case protocol.PayloadFragment:
		c.handleFragment(pkt)
	case protocol.PayloadAck:
		c.disassembler.Forget(pkt.SessionId, pkt.Ack.FragmentIndex)
	case protocol.PayloadNack:
		c.handleNack(pkt.SessionId, pkt.Nack)
	case protocol.PayloadFloodRequest:
		c.handleFloodRequest(pkt)
	}
}

func (c *Client[Req, Resp]) applyInformation(pkt protocol.Packet) {
	self, ok := c.routes.Graph().Node(c.id)
	if !ok {
		return
	}
	for _, update := range information.Extract(pkt, self) {
		c.applyUpdate(update)
	}
}

func (c *Client[Req, Resp]) applyUpdate(u information.Update) {
	switch u.Kind {
	case information.AddNode:
		c.routes.AddNode(u.Node)
	case information.AddEdge:
		c.routes.AddEdge(u.From, u.To)
	case information.RemoveEdge:
		c.routes.RemoveEdge(u.From, u.To)
	}
}

func (c *Client[Req, Resp]) handleFragment(pkt protocol.Packet) {
	source, ok := pkt.RoutingHeader.Source()
	if !ok {
		return
	}
	if header, ok := c.routes.GetBestRoute(source); ok {
		c.forward(protocol.NewAckPacket(pkt.SessionId, header.ToSourceHeader(), pkt.Fragment.Index))
	}

	message, complete, err := c.assembler.Insert(pkt.SessionId, pkt.Fragment)
	if !complete {
		return
	}
	if err != nil {
		// Malformed reassembly: tell the sender we can't make sense of
		// this session so it stops retransmitting into it.
		c.assembler.Forget(pkt.SessionId)
		if header, ok := c.routes.GetBestRoute(source); ok {
			c.forward(protocol.NewNackPacket(pkt.SessionId, header.ToSourceHeader(), pkt.Fragment.Index, protocol.NackUnexpectedRecipient, c.id))
		}
		return
	}

	c.events <- MessageReceived(message.String())
	c.assembler.Forget(pkt.SessionId)
	c.behaviour.OnResponseReceived(message)
}

func (c *Client[Req, Resp]) handleNack(sessionId uint64, nack protocol.Nack) {
	switch nack.Kind {
	case protocol.NackErrorInRouting, protocol.NackDropped:
		c.retransmit(sessionId, nack.FragmentIndex)
	case protocol.NackUnexpectedRecipient:
		c.UnwantedNode(nack.Who)
	}
}

func (c *Client[Req, Resp]) handleFloodRequest(pkt protocol.Packet) {
	req := pkt.FloodRequest
	req.PathTrace = append(req.PathTrace, protocol.PathEntry{Id: c.id, Kind: protocol.KindClient})
	resp := protocol.FloodResponse{FloodId: req.FloodId, PathTrace: req.PathTrace}
	reversed := protocol.NewSourceRoute(reverseIds(pathTraceIds(req.PathTrace)))
	c.forward(protocol.NewFloodResponsePacket(pkt.SessionId, reversed, resp))
}

// UnwantedNode marks id as an Unwanted destination, pruning any stored
// route to it.
func (c *Client[Req, Resp]) UnwantedNode(id protocol.NodeId) {
	c.routes.UnwantedNode(id)
}

// retransmit re-sends the still-retained fragment at (sessionId, index)
// along the current best route to its original destination.
func (c *Client[Req, Resp]) retransmit(sessionId, index uint64) {
	frag, ok := c.disassembler.Get(sessionId, index)
	if !ok {
		return
	}
	dest, ok := c.disassembler.GetDestination(sessionId)
	if !ok {
		return
	}
	header, ok := c.routes.GetBestRoute(dest)
	if !ok {
		return
	}
	c.forward(protocol.NewFragmentPacket(sessionId, header.ToSourceHeader(), frag))
}

// WaitForResponse blocks, handling every other inbound packet normally,
// until a reassembled response satisfies predicate, and returns it
// without delivering it to OnResponseReceived. Used by request/response
// call sites that need a specific reply rather than the general
// fire-and-forget flow Run drives.
func (c *Client[Req, Resp]) WaitForResponse(predicate func(protocol.Message[Resp]) bool) (protocol.Message[Resp], error) {
	for pkt := range c.packets {
		c.applyInformation(pkt)

		if pkt.Kind == protocol.PayloadNack && pkt.Nack.Kind == protocol.NackUnexpectedRecipient {
			c.HandlePacketNormal(pkt)
			return protocol.Message[Resp]{}, errWrongServerKind
		}
		if pkt.Kind != protocol.PayloadFragment {
			c.HandlePacketNormal(pkt)
			continue
		}

		source, ok := pkt.RoutingHeader.Source()
		if ok {
			if header, ok := c.routes.GetBestRoute(source); ok {
				c.forward(protocol.NewAckPacket(pkt.SessionId, header.ToSourceHeader(), pkt.Fragment.Index))
			}
		}

		message, complete, err := c.assembler.Insert(pkt.SessionId, pkt.Fragment)
		if !complete {
			continue
		}
		if err != nil {
			// Malformed reassembly: same handling as handleFragment, so the
			// sender stops retransmitting into a session we'll never complete.
			c.assembler.Forget(pkt.SessionId)
			if ok {
				if header, ok := c.routes.GetBestRoute(source); ok {
					c.forward(protocol.NewNackPacket(pkt.SessionId, header.ToSourceHeader(), pkt.Fragment.Index, protocol.NackUnexpectedRecipient, c.id))
				}
			}
			continue
		}
		c.events <- MessageReceived(message.String())
		c.assembler.Forget(pkt.SessionId)

		if predicate(message) {
			return message, nil
		}
		c.behaviour.OnResponseReceived(message)
	}
	return protocol.Message[Resp]{}, errChannelClosed
}

func pathTraceIds(trace []protocol.PathEntry) []protocol.NodeId {
	ids := make([]protocol.NodeId, len(trace))
	for i, e := range trace {
		ids[i] = e.Id
	}
	return ids
}

func reverseIds(ids []protocol.NodeId) []protocol.NodeId {
	out := make([]protocol.NodeId, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
