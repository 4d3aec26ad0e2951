// Package ids mints the two identifiers spec.md requires to be globally
// unique/unpredictable across the simulation: session ids (deterministic,
// derived from a per-host monotonic counter) and flood ids (random,
// collision-irrelevant given a bounded simulation lifetime).
package ids

import (
	"encoding/binary"

	"github.com/google/uuid"

	"firestige.xyz/relay/internal/protocol"
)

// NewSessionId combines a per-host monotonic counter value with the host's
// own NodeId, per spec.md §3: the low 56 bits are the counter, the high 8
// bits are the originating node, so session ids mint unique and monotonic
// within their originator across the whole simulation given unique node
// ids.
func NewSessionId(counter uint64, self protocol.NodeId) uint64 {
	return uint64(self)<<56 | (counter & 0x00ff_ffff_ffff_ffff)
}

// OriginOf extracts the originating NodeId encoded into a session id by
// NewSessionId.
func OriginOf(sessionId uint64) protocol.NodeId {
	return protocol.NodeId(sessionId >> 56)
}

// NewFloodId returns a fresh 64-bit random flood identifier, drawn from a
// UUIDv4's first 8 bytes — a source of randomness already in the pack
// (localrivet-gomcp generates request correlation ids the same way)
// rather than hand-rolling one over math/rand.
func NewFloodId() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}
