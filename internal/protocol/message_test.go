package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/relay/internal/protocol"
)

type pingContent struct {
	Seq int
}

func (p pingContent) String() string { return "ping" }

func TestSerializeDeserializeRoundTrips(t *testing.T) {
	original := protocol.NewMessage[pingContent](1, 2, 42, pingContent{Seq: 7})

	wire, err := protocol.Serialize(original)
	require.NoError(t, err)

	decoded, err := protocol.Deserialize[pingContent](wire)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDeserializeRejectsMalformedWire(t *testing.T) {
	_, err := protocol.Deserialize[pingContent]([]byte("not json"))
	require.Error(t, err)
	var fragErr *protocol.FragmentErr
	assert.ErrorAs(t, err, &fragErr)
}

func TestGenerateResponseSwapsSourceAndDestination(t *testing.T) {
	req := protocol.NewMessage[pingContent](1, 2, 42, pingContent{Seq: 1})
	resp := protocol.GenerateResponse[pingContent, pingContent](req, pingContent{Seq: 1})

	assert.Equal(t, req.DestinationId, resp.SourceId)
	assert.Equal(t, req.SourceId, resp.DestinationId)
	assert.Equal(t, req.SessionId, resp.SessionId)
}
