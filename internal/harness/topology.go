package harness

import (
	"fmt"
	"strconv"

	"github.com/sourcegraph/conc"

	"firestige.xyz/relay/internal/card"
	"firestige.xyz/relay/internal/config"
	"firestige.xyz/relay/internal/eventbus"
	"firestige.xyz/relay/internal/host"
	"firestige.xyz/relay/internal/log"
	"firestige.xyz/relay/internal/protocol"
)

// EventTopic is the single eventbus topic every host.Event is published
// under; partitioning by event kind (see forwardEvents) still lets a
// future second topic (e.g. per-session tracing) share the same bus.
const EventTopic = "host"

// eventBusPartitions is deliberately small: a demo topology emits at most
// a few events per second, so one partition per event kind is already
// more concurrency than there's dispatch work to fill.
const eventBusPartitions = 4

// Harness is a fully wired, not-yet-started topology: one goroutine slot
// per configured node, connected by buffered point-to-point channels,
// mirroring the teacher's bootModules (one goroutine per module) but
// supervised by conc.WaitGroup instead of a raw sync.WaitGroup.
type Harness struct {
	channelCapacity int

	drones     map[protocol.NodeId]*Drone
	clients    map[protocol.NodeId]*host.Client[PingRequest, PongResponse]
	servers    map[protocol.NodeId]*host.Server[PingRequest, PongResponse]
	behaviours map[protocol.NodeId]*PingClientBehaviour

	commands map[protocol.NodeId]chan host.Command
	packets  map[protocol.NodeId]chan protocol.Packet
	events   chan host.Event
	bus      *eventbus.InMemoryEventBus
	busDone  chan struct{}

	wg *conc.WaitGroup
}

// channelCapacity is the buffer depth given to every point-to-point
// packet channel, large enough that a burst (a flood fan-out, a batch of
// retransmits) never deadlocks the harness's own goroutines against each
// other.
const channelCapacity = 64

// BuildTopology wires every drone/client/server in cfg into live,
// channel-connected instances ready for Start. Clients use the ping demo
// application; servers answer with pong.
func BuildTopology(cfg *config.Topology) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}

	h := &Harness{
		channelCapacity: channelCapacity,
		drones:          make(map[protocol.NodeId]*Drone),
		clients:         make(map[protocol.NodeId]*host.Client[PingRequest, PongResponse]),
		servers:         make(map[protocol.NodeId]*host.Server[PingRequest, PongResponse]),
		behaviours:      make(map[protocol.NodeId]*PingClientBehaviour),
		commands:        make(map[protocol.NodeId]chan host.Command),
		packets:         make(map[protocol.NodeId]chan protocol.Packet),
		events:          make(chan host.Event, channelCapacity),
		bus:             eventbus.New(eventBusPartitions, channelCapacity),
		wg:              conc.NewWaitGroup(),
	}

	packets := h.packets
	nodeOf := func(id protocol.NodeId) chan protocol.Packet {
		if _, ok := packets[id]; !ok {
			packets[id] = make(chan protocol.Packet, channelCapacity)
		}
		return packets[id]
	}
	for _, id := range cfg.NodeIds() {
		nodeOf(id)
		h.commands[id] = make(chan host.Command, channelCapacity)
	}

	for _, d := range cfg.Drones {
		peers := make(map[protocol.NodeId]host.PacketSender, len(d.ConnectedNodeIds))
		for _, peer := range d.ConnectedNodeIds {
			peers[peer] = nodeOf(peer)
		}
		h.drones[d.Id] = NewDrone(d.Id, d.Pdr, int64(d.Id), h.commands[d.Id], packets[d.Id], peers)
	}

	for _, c := range cfg.Clients {
		peers := make(map[protocol.NodeId]host.PacketSender, len(c.ConnectedDroneIds))
		for _, peer := range c.ConnectedDroneIds {
			peers[peer] = nodeOf(peer)
		}
		behaviour := NewPingClientBehaviour(channelCapacity)
		cards := card.NewChannel[host.Client[PingRequest, PongResponse]]()
		h.clients[c.Id] = host.NewClient[PingRequest, PongResponse](c.Id, behaviour, h.events, h.commands[c.Id], packets[c.Id], peers, cards)
		h.behaviours[c.Id] = behaviour
	}

	for _, s := range cfg.Servers {
		peers := make(map[protocol.NodeId]host.PacketSender, len(s.ConnectedDroneIds))
		for _, peer := range s.ConnectedDroneIds {
			peers[peer] = nodeOf(peer)
		}
		h.servers[s.Id] = host.NewServer[PingRequest, PongResponse](s.Id, PongServerBehaviour{}, h.events, h.commands[s.Id], packets[s.Id], peers)
	}

	return h, nil
}

// Events exposes the combined event stream of every host in the topology.
func (h *Harness) Events() <-chan host.Event { return h.events }

// Bus exposes the eventbus every host.Event is republished onto, keyed
// by event kind, for subscribers that want topic-based fan-out instead
// of draining Events directly.
func (h *Harness) Bus() eventbus.EventBus { return h.bus }

// Client returns the running client for id, if one was configured.
func (h *Harness) Client(id protocol.NodeId) (*host.Client[PingRequest, PongResponse], bool) {
	c, ok := h.clients[id]
	return c, ok
}

// Server returns the running server for id, if one was configured.
func (h *Harness) Server(id protocol.NodeId) (*host.Server[PingRequest, PongResponse], bool) {
	s, ok := h.servers[id]
	return s, ok
}

// ClientBehaviour returns the PingClientBehaviour backing client id, so a
// caller can observe its responses.
func (h *Harness) ClientBehaviour(id protocol.NodeId) (*PingClientBehaviour, bool) {
	b, ok := h.behaviours[id]
	return b, ok
}

// Start computes each node's initial route table, then boots one
// goroutine per node.
func (h *Harness) Start() {
	for _, c := range h.clients {
		c.CalculateRoutes()
	}
	for _, s := range h.servers {
		s.CalculateRoutes()
	}

	for _, d := range h.drones {
		d := d
		h.wg.Go(func() { d.Run() })
	}
	for _, c := range h.clients {
		c := c
		h.wg.Go(func() { c.Run() })
	}
	for _, s := range h.servers {
		s := s
		h.wg.Go(func() { s.Run() })
	}

	h.busDone = make(chan struct{})
	go h.forwardEvents()

	log.GetLogger().WithField("drones", len(h.drones)).WithField("clients", len(h.clients)).WithField("servers", len(h.servers)).Info("harness started")
}

// forwardEvents republishes every host.Event onto the bus, keyed by its
// kind, until Events is closed. It runs outside wg deliberately: wg.Wait
// in Shutdown blocks until every host goroutine (the only producers into
// h.events) has exited, and only then does Shutdown close h.events — if
// this forwarder were itself a wg member, wg.Wait would never return
// while it waits on a channel nothing has closed yet.
func (h *Harness) forwardEvents() {
	defer close(h.busDone)
	for evt := range h.events {
		err := h.bus.Publish(&eventbus.Event{
			Topic:   EventTopic,
			Key:     strconv.Itoa(int(evt.Kind)),
			Payload: evt,
		})
		if err != nil {
			log.GetLogger().WithError(err).Warn("dropping host event, eventbus queue full")
		}
	}
}

// Shutdown crashes every node, waits for its goroutine to exit, then
// drains the remaining events through the bus and closes it.
func (h *Harness) Shutdown() {
	for _, commands := range h.commands {
		commands <- host.Crash()
	}
	h.wg.Wait()
	close(h.events)
	<-h.busDone
	h.bus.Close()
	log.GetLogger().Info("harness stopped")
}

// Reload translates the difference between a topology the harness was
// built from and a freshly re-read one into AddConnectedDrone/
// RemoveConnectedDrone commands against the affected nodes, the runtime
// counterpart to the teacher's propagateCommonFieldsInPipes: instead of
// repropagating defaults once at boot, it repropagates adjacency changes
// for as long as the harness runs. A node named only in the new topology
// is skipped — growing the node set requires rebuilding the harness.
func (h *Harness) Reload(old, next *config.Topology) {
	for id, delta := range config.Diff(old, next) {
		cmds, ok := h.commands[id]
		if !ok {
			continue
		}
		for _, peer := range delta.Removed {
			cmds <- host.RemoveConnectedDrone(peer)
		}
		for _, peer := range delta.Added {
			ch, ok := h.packets[peer]
			if !ok {
				log.GetLogger().WithField("node", id).WithField("peer", peer).Warn("reload: unknown peer, skipping")
				continue
			}
			cmds <- host.AddConnectedDrone(peer, ch)
		}
	}
}
