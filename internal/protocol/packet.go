package protocol

// FragmentDSize is the compile-time fragment payload capacity, D in
// spec.md's data model.
const FragmentDSize = 128

// Fragment carries one numbered slice of a serialized message.
type Fragment struct {
	SessionId uint64
	Index     uint64
	Total     uint64
	Length    int
	Data      [FragmentDSize]byte
}

// Payload returns the valid prefix of Data, i.e. Data[:Length].
func (f Fragment) Payload() []byte {
	return f.Data[:f.Length]
}

// RoutingHeader is a classic source route: the full hop list plus the
// index of the hop currently holding the packet.
type RoutingHeader struct {
	Hops     []NodeId
	HopIndex int
}

// NextHop returns the node the packet should be forwarded to next, or
// false if HopIndex is already at (or past) the last hop.
func (h RoutingHeader) NextHop() (NodeId, bool) {
	if h.HopIndex+1 >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex+1], true
}

// CurrentHop returns the node the header says currently holds the packet.
func (h RoutingHeader) CurrentHop() (NodeId, bool) {
	if h.HopIndex < 0 || h.HopIndex >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex], true
}

// Source returns the originating node, the first hop.
func (h RoutingHeader) Source() (NodeId, bool) {
	if len(h.Hops) == 0 {
		return 0, false
	}
	return h.Hops[0], true
}

// Destination returns the terminal node, the last hop.
func (h RoutingHeader) Destination() (NodeId, bool) {
	if len(h.Hops) == 0 {
		return 0, false
	}
	return h.Hops[len(h.Hops)-1], true
}

// Advance returns a copy of h with HopIndex incremented, the step every
// host takes before handing a packet to the channel for hops[hop_index].
func (h RoutingHeader) Advance() RoutingHeader {
	return RoutingHeader{Hops: h.Hops, HopIndex: h.HopIndex + 1}
}

// Reversed produces the header used for an ack/nack/response travelling
// back along the same hops, reset to rest at index 0 (the sender's hop).
func (h RoutingHeader) Reversed() RoutingHeader {
	hops := make([]NodeId, len(h.Hops))
	for i, id := range h.Hops {
		hops[len(h.Hops)-1-i] = id
	}
	return RoutingHeader{Hops: hops, HopIndex: 0}
}

// ReversedToSource reverses only the hops already travelled
// (Hops[:HopIndex+1]), resting at index 0, the caller's own hop. Unlike
// Reversed, it does not assume the caller sits at the header's last hop —
// use this from an intermediate drone routing a Nack back toward the
// source; Reversed is for a terminal host turning a header around in full.
func (h RoutingHeader) ReversedToSource() RoutingHeader {
	travelled := h.Hops[:h.HopIndex+1]
	hops := make([]NodeId, len(travelled))
	for i, id := range travelled {
		hops[len(travelled)-1-i] = id
	}
	return RoutingHeader{Hops: hops, HopIndex: 0}
}

// NewSourceRoute builds a header at rest on its first hop.
func NewSourceRoute(hops []NodeId) RoutingHeader {
	return RoutingHeader{Hops: hops, HopIndex: 0}
}

// NackKind enumerates the negative-acknowledgement reasons a drone (or a
// host rejecting a session) can report.
type NackKind int

const (
	NackErrorInRouting NackKind = iota
	NackDestinationIsDrone
	NackDropped
	NackUnexpectedRecipient
)

// Nack is a negative ack for one fragment. Who is only meaningful for
// NackErrorInRouting (the unreachable next hop) and NackUnexpectedRecipient
// (the node that rejected the session).
type Nack struct {
	FragmentIndex uint64
	Kind          NackKind
	Who           NodeId
}

// Ack is a positive acknowledgement for one fragment.
type Ack struct {
	FragmentIndex uint64
}

// PathEntry is one (node, kind) pair recorded while a flood probe travels.
type PathEntry struct {
	Id   NodeId
	Kind SimpleKind
}

// FloodRequest is the discovery broadcast; every hop appends itself to
// PathTrace before forwarding.
type FloodRequest struct {
	FloodId   uint64
	Initiator NodeId
	PathTrace []PathEntry
}

// FloodResponse carries the full observed path back to the initiator.
type FloodResponse struct {
	FloodId   uint64
	PathTrace []PathEntry
}

// PayloadKind tags which variant Packet.Payload holds.
type PayloadKind int

const (
	PayloadFragment PayloadKind = iota
	PayloadAck
	PayloadNack
	PayloadFloodRequest
	PayloadFloodResponse
)

// Packet is the unit that travels on point-to-point channels between
// adjacent nodes.
type Packet struct {
	SessionId     uint64
	RoutingHeader RoutingHeader
	Kind          PayloadKind
	Fragment      Fragment
	Ack           Ack
	Nack          Nack
	FloodRequest  FloodRequest
	FloodResponse FloodResponse
}

// NewFragmentPacket builds a MsgFragment packet.
func NewFragmentPacket(sessionId uint64, header RoutingHeader, frag Fragment) Packet {
	return Packet{SessionId: sessionId, RoutingHeader: header, Kind: PayloadFragment, Fragment: frag}
}

// NewAckPacket builds an Ack packet.
func NewAckPacket(sessionId uint64, header RoutingHeader, fragmentIndex uint64) Packet {
	return Packet{SessionId: sessionId, RoutingHeader: header, Kind: PayloadAck, Ack: Ack{FragmentIndex: fragmentIndex}}
}

// NewNackPacket builds a Nack packet.
func NewNackPacket(sessionId uint64, header RoutingHeader, fragmentIndex uint64, kind NackKind, who NodeId) Packet {
	return Packet{
		SessionId:     sessionId,
		RoutingHeader: header,
		Kind:          PayloadNack,
		Nack:          Nack{FragmentIndex: fragmentIndex, Kind: kind, Who: who},
	}
}

// NewFloodRequestPacket builds a FloodRequest packet with an empty route
// (flood packets aren't source-routed; every hop decides its own fan-out).
func NewFloodRequestPacket(sessionId uint64, req FloodRequest) Packet {
	return Packet{SessionId: sessionId, RoutingHeader: RoutingHeader{}, Kind: PayloadFloodRequest, FloodRequest: req}
}

// NewFloodResponsePacket builds a FloodResponse packet along header.
func NewFloodResponsePacket(sessionId uint64, header RoutingHeader, resp FloodResponse) Packet {
	return Packet{SessionId: sessionId, RoutingHeader: header, Kind: PayloadFloodResponse, FloodResponse: resp}
}
