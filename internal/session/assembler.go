// Package session implements the inbound reassembly buffers and outbound
// fragment retention described in spec.md §4.B: the Assembler/Disassembler
// pair that sits between the Fragment Codec and the Host State Machine.
package session

import (
	"sort"

	"firestige.xyz/relay/internal/fragment"
	"firestige.xyz/relay/internal/protocol"
)

// Assembler reassembles inbound fragments into Message[T] values, keyed by
// session id. T is the type a given host expects to receive: Req for a
// server, Resp for a client.
type Assembler[T any] struct {
	bySession map[uint64]map[uint64]protocol.Fragment
}

// NewAssembler returns an empty Assembler.
func NewAssembler[T any]() *Assembler[T] {
	return &Assembler[T]{bySession: make(map[uint64]map[uint64]protocol.Fragment)}
}

// Insert stores fragment under session_id. Duplicate inserts of the same
// index overwrite (idempotent for identical fragments, per spec.md §3). If
// the session now holds fragment.Total distinct indices the message is
// decoded and returned; otherwise Insert returns (zero, false, nil).
func (a *Assembler[T]) Insert(sessionId uint64, f protocol.Fragment) (protocol.Message[T], bool, error) {
	bucket, ok := a.bySession[sessionId]
	if !ok {
		bucket = make(map[uint64]protocol.Fragment)
		a.bySession[sessionId] = bucket
	}
	bucket[f.Index] = f

	if uint64(len(bucket)) != f.Total {
		var zero protocol.Message[T]
		return zero, false, nil
	}

	ordered := make([]protocol.Fragment, 0, len(bucket))
	for _, frag := range bucket {
		ordered = append(ordered, frag)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	m, err := fragment.Deserialize[T](ordered)
	if err != nil {
		return protocol.Message[T]{}, true, err
	}
	return m, true, nil
}

// Forget drops all state for session_id unconditionally.
func (a *Assembler[T]) Forget(sessionId uint64) {
	delete(a.bySession, sessionId)
}
