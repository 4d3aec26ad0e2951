package ids_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"firestige.xyz/relay/internal/ids"
	"firestige.xyz/relay/internal/protocol"
)

func TestNewSessionIdEncodesOriginatorInHighByte(t *testing.T) {
	id := ids.NewSessionId(1, protocol.NodeId(5))
	assert.Equal(t, protocol.NodeId(5), ids.OriginOf(id))
}

func TestNewSessionIdIsMonotonicPerOriginator(t *testing.T) {
	self := protocol.NodeId(3)
	first := ids.NewSessionId(1, self)
	second := ids.NewSessionId(2, self)
	assert.Less(t, first, second)
}

func TestNewFloodIdIsNotAlwaysZero(t *testing.T) {
	a := ids.NewFloodId()
	b := ids.NewFloodId()
	assert.NotEqual(t, a, b, "two flood ids drawn in succession should not collide")
}
