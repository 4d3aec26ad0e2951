package session

import (
	"go.uber.org/atomic"

	"firestige.xyz/relay/internal/fragment"
	"firestige.xyz/relay/internal/protocol"
)

// Disassembler splits outbound messages into fragments and retains them,
// keyed by (session_id, index), until acked — so a Nack can trigger
// retransmission without re-running the codec. T is the type a given host
// sends: Req for a client, Resp for a server.
type Disassembler[T any] struct {
	fragments    map[uint64]map[uint64]protocol.Fragment
	destinations map[uint64]protocol.NodeId
	counter      atomic.Uint64
}

// NewDisassembler returns an empty Disassembler.
func NewDisassembler[T any]() *Disassembler[T] {
	return &Disassembler[T]{
		fragments:    make(map[uint64]map[uint64]protocol.Fragment),
		destinations: make(map[uint64]protocol.NodeId),
	}
}

// Disassembly runs the codec over m, retains every produced fragment
// keyed by (session_id, index), records m's destination, and returns the
// fragments for the caller to route and send.
func (d *Disassembler[T]) Disassembly(m protocol.Message[T]) ([]protocol.Fragment, error) {
	frags, err := fragment.Serialize(m.SessionId, m)
	if err != nil {
		return nil, err
	}
	bucket := make(map[uint64]protocol.Fragment, len(frags))
	for _, f := range frags {
		bucket[f.Index] = f
	}
	d.fragments[m.SessionId] = bucket
	d.destinations[m.SessionId] = m.DestinationId
	return frags, nil
}

// Get returns the retained fragment at (session_id, index), for
// retransmission.
func (d *Disassembler[T]) Get(sessionId, index uint64) (protocol.Fragment, bool) {
	bucket, ok := d.fragments[sessionId]
	if !ok {
		return protocol.Fragment{}, false
	}
	f, ok := bucket[index]
	return f, ok
}

// Forget removes the retained fragment at (session_id, index). When that
// was the session's last retained fragment, the destination entry is
// cleared too.
func (d *Disassembler[T]) Forget(sessionId, index uint64) (protocol.Fragment, bool) {
	bucket, ok := d.fragments[sessionId]
	if !ok {
		return protocol.Fragment{}, false
	}
	f, ok := bucket[index]
	if !ok {
		return protocol.Fragment{}, false
	}
	delete(bucket, index)
	if len(bucket) == 0 {
		delete(d.fragments, sessionId)
		delete(d.destinations, sessionId)
	}
	return f, true
}

// GetDestination returns the destination recorded for session_id.
func (d *Disassembler[T]) GetDestination(sessionId uint64) (protocol.NodeId, bool) {
	id, ok := d.destinations[sessionId]
	return id, ok
}

// NewSessionId returns the next counter value for this disassembler. The
// host combines it with its own NodeId per spec.md §3's session-id layout.
func (d *Disassembler[T]) NewSessionId() uint64 {
	return d.counter.Add(1) - 1
}
