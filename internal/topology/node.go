package topology

import (
	"math"

	"firestige.xyz/relay/internal/protocol"
)

// historySize is H in spec.md's data model: the bounded FIFO capacity for
// a drone's delivery history.
const historySize = 250

// pdrFloor is the minimum observation count (H/10) before a drone's drop
// rate is considered observed rather than assumed zero.
const pdrFloor = historySize / 10

const (
	costAlpha = 0.1
	costBase  = 2.0
)

// drone holds a single drone's bounded delivery history.
type drone struct {
	history []protocol.Delivery // ring buffer, oldest at index 0
}

func newDrone() *drone {
	return &drone{history: make([]protocol.Delivery, 0, historySize)}
}

func newDroneWith(deliveries []protocol.Delivery) *drone {
	d := newDrone()
	for _, o := range deliveries {
		d.record(o)
	}
	return d
}

func (d *drone) record(o protocol.Delivery) {
	d.history = append(d.history, o)
	if len(d.history) > historySize {
		d.history = d.history[1:]
	}
}

// merge appends other's outcomes onto d, respecting the bounded FIFO.
func (d *drone) merge(other *drone) {
	for _, o := range other.history {
		d.record(o)
	}
}

func (d *drone) pdr() float64 {
	if len(d.history) < pdrFloor {
		return 0
	}
	dropped := 0
	for _, o := range d.history {
		if o == protocol.Dropped {
			dropped++
		}
	}
	return float64(dropped) / float64(len(d.history))
}

// cost is the drone's per-hop cost: (1-alpha)*log_B(1/(1-p)) + alpha.
func (d *drone) cost() float64 {
	p := math.Min(d.pdr(), 0.9999)
	retransmitExp := 1.0 / (1.0 - p)
	return (1-costAlpha)*logBase(retransmitExp, costBase) + costAlpha
}

func logBase(x, base float64) float64 {
	return math.Log(x) / math.Log(base)
}

// Kind distinguishes a drone (with delivery history) from a host (with an
// ApplicationType). Exactly one of Drone/App is meaningful, selected by
// Simple.
type Kind struct {
	Simple protocol.SimpleKind
	drone  *drone // nil unless Simple == KindDrone
	App    protocol.ApplicationType
}

// NewDroneKind returns a Kind for a freshly observed drone with no history.
func NewDroneKind() Kind {
	return Kind{Simple: protocol.KindDrone, drone: newDrone()}
}

// NewDroneKindWithHistory returns a drone Kind seeded with the given
// delivery outcomes (used when the Information Extractor infers a
// synthetic delivery credit in the same step the node is first observed).
func NewDroneKindWithHistory(deliveries ...protocol.Delivery) Kind {
	return Kind{Simple: protocol.KindDrone, drone: newDroneWith(deliveries)}
}

// NewHostKind returns a client or server Kind with the given application.
func NewHostKind(simple protocol.SimpleKind, app protocol.ApplicationType) Kind {
	return Kind{Simple: simple, App: app}
}

// NewKindFromSimple builds a Kind from a flood trace's SimpleKind alone,
// where no application tag or delivery history is observed yet: a fresh
// drone with empty history, or a host tagged Unknown.
func NewKindFromSimple(simple protocol.SimpleKind) Kind {
	if simple == protocol.KindDrone {
		return NewDroneKind()
	}
	return NewHostKind(simple, protocol.AppUnknown)
}

// Cost is the per-node cost used when summing a route: zero for hosts,
// the PDR-weighted expression for drones.
func (k Kind) Cost() float64 {
	if k.Simple != protocol.KindDrone {
		return 0
	}
	return k.drone.cost()
}

// RecordDelivery appends a delivery outcome to a drone Kind's history; a
// no-op on host kinds.
func (k *Kind) RecordDelivery(o protocol.Delivery) {
	if k.Simple == protocol.KindDrone && k.drone != nil {
		k.drone.record(o)
	}
}

// Node is a (NodeId, Kind) pair as stored in the Graph.
type Node struct {
	Id   protocol.NodeId
	Kind Kind
}

// IsOtherUseful decides whether incoming merges into the existing node
// (spec.md §4.C's merge rule, mirrored from the information a drone/host
// update carries): different simple kinds never merge; an Unknown host is
// always replaced; an Unwanted host refuses replacement; a drone with any
// observations merges.
func (existing Node) IsOtherUseful(incoming Node) bool {
	if existing.Id != incoming.Id {
		return false
	}
	if existing.Kind.Simple != incoming.Kind.Simple {
		return false
	}
	if existing.Kind.Simple != protocol.KindDrone {
		if existing.Kind.App == protocol.AppUnknown {
			return true
		}
		if existing.Kind.App == protocol.AppUnwanted {
			return false
		}
		return false
	}
	return incoming.Kind.drone != nil && len(incoming.Kind.drone.history) > 0
}

// Merge applies incoming onto existing per the rule IsOtherUseful already
// approved: replace a host's Unknown application, or merge a drone's
// history. Callers must have already checked IsOtherUseful.
func (existing *Node) Merge(incoming Node) {
	if existing.Kind.Simple == protocol.KindDrone {
		existing.Kind.drone.merge(incoming.Kind.drone)
		return
	}
	existing.Kind.App = incoming.Kind.App
}

// counterpartSimple returns the opposite host kind: server for client and
// vice versa. Only meaningful when simple is KindClient or KindServer.
func counterpartSimple(simple protocol.SimpleKind) protocol.SimpleKind {
	if simple == protocol.KindServer {
		return protocol.KindClient
	}
	return protocol.KindServer
}

// WeakCounterpart returns the Kind inferred for the peer at the far end of
// a packet whose application tag isn't trustworthy yet (spec.md §4.E: "weak:
// app=Unknown"), e.g. the first hop of an inbound MsgFragment.
func (k Kind) WeakCounterpart() Kind {
	return Kind{Simple: counterpartSimple(k.Simple), App: protocol.AppUnknown}
}

// StrongCounterpart returns the Kind inferred for the peer when the
// application tag can be trusted (spec.md §4.E: "strong: preserve app"),
// e.g. the first hop of an inbound Ack.
func (k Kind) StrongCounterpart() Kind {
	return Kind{Simple: counterpartSimple(k.Simple), App: k.App}
}

// IsRouteMeaningful reports whether a and b may terminate a stored route:
// both must be hosts, of opposite kind, with compatible ApplicationTypes.
func (a Node) IsRouteMeaningful(b Node) bool {
	if a.Kind.Simple == protocol.KindDrone || b.Kind.Simple == protocol.KindDrone {
		return false
	}
	wantOther := protocol.KindServer
	if a.Kind.Simple == protocol.KindServer {
		wantOther = protocol.KindClient
	}
	if b.Kind.Simple != wantOther {
		return false
	}
	return a.Kind.App.Compatible(b.Kind.App)
}
