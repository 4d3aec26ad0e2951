package host

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"firestige.xyz/relay/internal/ids"
	"firestige.xyz/relay/internal/information"
	"firestige.xyz/relay/internal/log"
	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/routing"
	"firestige.xyz/relay/internal/session"
	"firestige.xyz/relay/internal/topology"
)

// floodInterval and routeRefreshInterval govern a server's unprompted
// periodic maintenance: servers don't play cards, so they drive flood
// discovery and route recalculation off a wall-clock timer instead.
const (
	floodInterval        = 30 * time.Second
	routeRefreshInterval = 30 * time.Second
	gatherBatchSize      = 10
)

// ServerBehaviour is the capability set a server host is parameterized
// over: what application it declares and how it answers a request.
type ServerBehaviour[Req, Resp any] interface {
	ApplicationType() protocol.ApplicationType
	HandleRequest(req protocol.Message[Req], sourceId protocol.NodeId) protocol.Message[Resp]
}

// Server is a server host: it answers requests and periodically
// refreshes its own view of reachable clients.
type Server[Req, Resp any] struct {
	id        protocol.NodeId
	behaviour ServerBehaviour[Req, Resp]

	assembler    *session.Assembler[Req]
	disassembler *session.Disassembler[Resp]
	routes       *routing.Table

	events   chan<- Event
	commands <-chan Command
	packets  <-chan protocol.Packet
	peers    map[protocol.NodeId]PacketSender

	lifecycle     *Lifecycle
	lastFlood     time.Time
	lastRouteCalc time.Time
}

// NewServer builds a Server wired to its harness-owned channels.
func NewServer[Req, Resp any](
	id protocol.NodeId,
	behaviour ServerBehaviour[Req, Resp],
	events chan<- Event,
	commands <-chan Command,
	packets <-chan protocol.Packet,
	peers map[protocol.NodeId]PacketSender,
) *Server[Req, Resp] {
	self := topology.Node{Id: id, Kind: topology.NewHostKind(protocol.KindServer, behaviour.ApplicationType())}
	routes := routing.NewTable(self)
	for peer := range peers {
		routes.AddEdge(id, peer)
	}
	now := time.Now()
	return &Server[Req, Resp]{
		id:            id,
		behaviour:     behaviour,
		assembler:     session.NewAssembler[Req](),
		disassembler:  session.NewDisassembler[Resp](),
		routes:        routes,
		events:        events,
		commands:      commands,
		packets:       packets,
		peers:         peers,
		lifecycle:     NewLifecycle(),
		lastFlood:     now.Add(-floodInterval),
		lastRouteCalc: now.Add(-routeRefreshInterval),
	}
}

// Id returns the server's node id.
func (s *Server[Req, Resp]) Id() protocol.NodeId { return s.id }

// State reports the server's current lifecycle stage.
func (s *Server[Req, Resp]) State() State { return s.lifecycle.Current() }

// Routes exposes the server's route table for introspection (debug
// dumps, tests); it is never mutated from outside the server's own event
// loop.
func (s *Server[Req, Resp]) Routes() *routing.Table { return s.routes }

// CalculateRoutes recomputes the ranked route table and returns how many
// routes survived.
func (s *Server[Req, Resp]) CalculateRoutes() int {
	return s.routes.CalculateRoutes()
}

// Run drives the server's event loop: a non-blocking drain of pending
// commands and packets each tick, plus the periodic maintenance checks,
// until a Crash command arrives.
func (s *Server[Req, Resp]) Run() {
	s.lifecycle.Start()
	for s.lifecycle.IsActive() {
		if time.Since(s.lastFlood) > floodInterval {
			s.lastFlood = time.Now()
			s.initiateFlood()
		}
		if time.Since(s.lastRouteCalc) > routeRefreshInterval {
			s.lastRouteCalc = time.Now()
			s.routes.CalculateRoutes()
		}

		for _, cmd := range s.gatherCommands() {
			s.handleCommand(cmd)
		}
		for _, pkt := range s.gatherPackets() {
			s.handlePacket(pkt)
		}
	}
	if err := s.Shutdown(); err != nil {
		log.GetLogger().WithField("server", s.id).WithError(err).Warn("server shutdown had errors")
	}
	s.lifecycle.Finish()
}

// Shutdown closes every connected drone's outbound channel, the same way
// Client.Shutdown does, accumulating per-peer close failures instead of
// stopping at the first.
func (s *Server[Req, Resp]) Shutdown() error {
	var errs error
	for id, sender := range s.peers {
		if err := closeSender(sender); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("peer %d: %w", id, err))
		}
	}
	return errs
}

// gatherCommands drains up to gatherBatchSize pending commands without
// blocking.
func (s *Server[Req, Resp]) gatherCommands() []Command {
	var out []Command
	for len(out) < gatherBatchSize {
		select {
		case cmd, ok := <-s.commands:
			if !ok {
				return out
			}
			out = append(out, cmd)
		default:
			return out
		}
	}
	return out
}

// gatherPackets drains up to gatherBatchSize pending packets without
// blocking.
func (s *Server[Req, Resp]) gatherPackets() []protocol.Packet {
	var out []protocol.Packet
	for len(out) < gatherBatchSize {
		select {
		case pkt, ok := <-s.packets:
			if !ok {
				return out
			}
			out = append(out, pkt)
		default:
			return out
		}
	}
	return out
}

func (s *Server[Req, Resp]) initiateFlood() {
	floodId := ids.NewFloodId()
	s.events <- FloodInitiated(s.id, floodId)

	req := protocol.FloodRequest{
		FloodId:   floodId,
		Initiator: s.id,
		PathTrace: []protocol.PathEntry{{Id: s.id, Kind: protocol.KindServer}},
	}
	pkt := protocol.NewFloodRequestPacket(s.newSessionId(), req)
	for _, sender := range s.peers {
		sender <- pkt
	}
}

func (s *Server[Req, Resp]) newSessionId() uint64 {
	return ids.NewSessionId(s.disassembler.NewSessionId(), s.id)
}

func (s *Server[Req, Resp]) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdCrash:
		s.lifecycle.RequestStop()
	case CmdAddConnectedDrone:
		s.routes.AddEdge(s.id, cmd.NodeId)
		s.peers[cmd.NodeId] = cmd.Sender
	case CmdRemoveConnectedDrone:
		s.routes.RemoveEdge(s.id, cmd.NodeId)
		delete(s.peers, cmd.NodeId)
	}
}

func (s *Server[Req, Resp]) handlePacket(pkt protocol.Packet) {
	s.applyInformation(pkt)

	switch pkt.Kind {
	case protocol.PayloadFragment:
		s.handleFragment(pkt)
	case protocol.PayloadAck:
		s.disassembler.Forget(pkt.SessionId, pkt.Ack.FragmentIndex)
	case protocol.PayloadNack:
		s.handleNack(pkt.SessionId, pkt.Nack)
	case protocol.PayloadFloodRequest:
		s.handleFloodRequest(pkt)
	}
}

func (s *Server[Req, Resp]) applyInformation(pkt protocol.Packet) {
	self, ok := s.routes.Graph().Node(s.id)
	if !ok {
		return
	}
	for _, update := range information.Extract(pkt, self) {
		switch update.Kind {
		case information.AddNode:
			s.routes.AddNode(update.Node)
		case information.AddEdge:
			s.routes.AddEdge(update.From, update.To)
		case information.RemoveEdge:
			s.routes.RemoveEdge(update.From, update.To)
		}
	}
}

func (s *Server[Req, Resp]) handleFragment(pkt protocol.Packet) {
	message, complete, err := s.assembler.Insert(pkt.SessionId, pkt.Fragment)

	reversed := pkt.RoutingHeader.Reversed()
	s.forward(protocol.NewAckPacket(pkt.SessionId, reversed, pkt.Fragment.Index))

	if !complete {
		return
	}
	if err != nil {
		s.forward(protocol.NewNackPacket(pkt.SessionId, reversed, 0, protocol.NackUnexpectedRecipient, s.id))
		return
	}

	s.assembler.Forget(pkt.SessionId)
	s.events <- MessageReceived(message.String())
	response := s.behaviour.HandleRequest(message, message.SourceId)
	s.events <- MessageSent(response.String())
	s.sendResponse(response)
}

func (s *Server[Req, Resp]) handleNack(sessionId uint64, nack protocol.Nack) {
	switch nack.Kind {
	case protocol.NackErrorInRouting, protocol.NackDropped:
		s.retransmit(sessionId, nack.FragmentIndex)
	}
}

func (s *Server[Req, Resp]) handleFloodRequest(pkt protocol.Packet) {
	req := pkt.FloodRequest
	req.PathTrace = append(req.PathTrace, protocol.PathEntry{Id: s.id, Kind: protocol.KindServer})
	resp := protocol.FloodResponse{FloodId: req.FloodId, PathTrace: req.PathTrace}
	reversed := protocol.NewSourceRoute(reverseIds(pathTraceIds(req.PathTrace)))
	s.forward(protocol.NewFloodResponsePacket(pkt.SessionId, reversed, resp))
}

func (s *Server[Req, Resp]) sendResponse(response protocol.Message[Resp]) {
	frags, err := s.disassembler.Disassembly(response)
	if err != nil {
		return
	}
	for _, frag := range frags {
		if !s.routes.CanReach(response.DestinationId) {
			s.routes.CalculateRoutes()
		}
		header, ok := s.routes.GetBestRoute(response.DestinationId)
		if !ok {
			return
		}
		s.forward(protocol.NewFragmentPacket(response.SessionId, header.ToSourceHeader(), frag))
	}
}

func (s *Server[Req, Resp]) forward(pkt protocol.Packet) {
	next, ok := pkt.RoutingHeader.NextHop()
	if !ok {
		return
	}
	sender, ok := s.peers[next]
	if !ok {
		return
	}
	pkt.RoutingHeader = pkt.RoutingHeader.Advance()
	sender <- pkt
}

func (s *Server[Req, Resp]) retransmit(sessionId, index uint64) {
	frag, ok := s.disassembler.Get(sessionId, index)
	if !ok {
		return
	}
	dest, ok := s.disassembler.GetDestination(sessionId)
	if !ok {
		return
	}
	header, ok := s.routes.GetBestRoute(dest)
	if !ok {
		return
	}
	s.forward(protocol.NewFragmentPacket(sessionId, header.ToSourceHeader(), frag))
}
