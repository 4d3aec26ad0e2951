package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"firestige.xyz/relay/internal/protocol"
)

func TestRoutingHeaderNextHop(t *testing.T) {
	h := protocol.NewSourceRoute([]protocol.NodeId{0, 1, 2})

	next, ok := h.NextHop()
	assert.True(t, ok)
	assert.Equal(t, protocol.NodeId(1), next)

	h = h.Advance().Advance()
	_, ok = h.NextHop()
	assert.False(t, ok, "last hop has no next hop")
}

func TestRoutingHeaderReversed(t *testing.T) {
	h := protocol.NewSourceRoute([]protocol.NodeId{0, 1, 2})

	r := h.Reversed()
	assert.Equal(t, []protocol.NodeId{2, 1, 0}, r.Hops)
	assert.Equal(t, 0, r.HopIndex)

	source, ok := r.Source()
	assert.True(t, ok)
	assert.Equal(t, protocol.NodeId(2), source)

	dest, ok := r.Destination()
	assert.True(t, ok)
	assert.Equal(t, protocol.NodeId(0), dest)
}

func TestRoutingHeaderReversedToSourceOnlyReversesTravelledHops(t *testing.T) {
	h := protocol.NewSourceRoute([]protocol.NodeId{0, 1, 2, 3})
	h.HopIndex = 2 // at hop 2, two hops past the source, two short of the end

	r := h.ReversedToSource()
	assert.Equal(t, []protocol.NodeId{2, 1, 0}, r.Hops, "only hops already travelled should be reversed")
	assert.Equal(t, 0, r.HopIndex)

	next, ok := r.NextHop()
	assert.True(t, ok)
	assert.Equal(t, protocol.NodeId(1), next, "next hop toward the source is the previous hop, not the drone's own id")
}

func TestFragmentPayloadIsPrefixOfData(t *testing.T) {
	var frag protocol.Fragment
	frag.Length = 3
	copy(frag.Data[:], []byte{1, 2, 3, 4})

	assert.Equal(t, []byte{1, 2, 3}, frag.Payload())
}
