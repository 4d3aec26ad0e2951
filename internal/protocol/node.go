// Package protocol defines the wire-level types shared by every host and
// drone in the overlay: node identities, the application message envelope,
// and the packet/fragment/ack/nack/flood shapes that travel on the wire.
package protocol

import "fmt"

// NodeId uniquely identifies a node in the simulated overlay.
type NodeId uint8

// SimpleKind is the coarse kind carried in flood path traces, where only
// drone/client/server distinction matters and no history or application
// tag is meaningful.
type SimpleKind int

const (
	KindDrone SimpleKind = iota
	KindClient
	KindServer
)

func (k SimpleKind) String() string {
	switch k {
	case KindDrone:
		return "drone"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// ApplicationType is the coarse capability tag attached to a client or
// server host. Two ApplicationTypes are compatible iff either is Unknown,
// neither is Unwanted, and otherwise they're equal.
type ApplicationType int

const (
	AppChat ApplicationType = iota
	AppContent
	AppUnknown
	AppUnwanted
)

func (a ApplicationType) String() string {
	switch a {
	case AppChat:
		return "chat"
	case AppContent:
		return "content"
	case AppUnknown:
		return "unknown"
	case AppUnwanted:
		return "unwanted"
	default:
		return "invalid"
	}
}

// Compatible reports whether a and b may terminate a useful route: either
// is Unknown, neither is Unwanted, or they're equal.
func (a ApplicationType) Compatible(b ApplicationType) bool {
	if a == AppUnwanted || b == AppUnwanted {
		return false
	}
	if a == AppUnknown || b == AppUnknown {
		return true
	}
	return a == b
}

// Delivery is one outcome recorded in a drone's rolling history.
type Delivery int

const (
	Forwarded Delivery = iota
	Dropped
)

func (d Delivery) String() string {
	if d == Dropped {
		return "dropped"
	}
	return "forwarded"
}

// FragmentErr reports a malformed-message failure surfaced during
// reassembly (see internal/fragment).
type FragmentErr struct {
	Reason string
}

func (e *FragmentErr) Error() string {
	return fmt.Sprintf("malformed message: %s", e.Reason)
}
