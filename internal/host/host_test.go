package host_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/relay/internal/card"
	"firestige.xyz/relay/internal/fragment"
	"firestige.xyz/relay/internal/host"
	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/topology"
)

type reqContent string

func (r reqContent) String() string { return string(r) }

type respContent string

func (r respContent) String() string { return string(r) }

type echoClientBehaviour struct {
	received chan protocol.Message[respContent]
}

func (b *echoClientBehaviour) ApplicationType() protocol.ApplicationType { return protocol.AppChat }
func (b *echoClientBehaviour) OnResponseReceived(resp protocol.Message[respContent]) {
	b.received <- resp
}
func (b *echoClientBehaviour) Cards() []card.Card[host.Client[reqContent, respContent]] { return nil }

type echoServerBehaviour struct{}

func (echoServerBehaviour) ApplicationType() protocol.ApplicationType { return protocol.AppChat }
func (echoServerBehaviour) HandleRequest(req protocol.Message[reqContent], sourceId protocol.NodeId) protocol.Message[respContent] {
	return protocol.GenerateResponse[reqContent, respContent](req, respContent("pong:"+string(req.Content)))
}

func TestClientServerRoundTrip(t *testing.T) {
	const clientId, serverId protocol.NodeId = 0, 1

	clientPackets := make(chan protocol.Packet, 16)
	serverPackets := make(chan protocol.Packet, 16)
	clientCommands := make(chan host.Command, 4)
	serverCommands := make(chan host.Command, 4)
	clientEvents := make(chan host.Event, 16)
	serverEvents := make(chan host.Event, 16)

	clientBehaviour := &echoClientBehaviour{received: make(chan protocol.Message[respContent], 1)}
	cardsCh := card.NewChannel[host.Client[reqContent, respContent]]()

	client := host.NewClient[reqContent, respContent](
		clientId, clientBehaviour, clientEvents, clientCommands, clientPackets,
		map[protocol.NodeId]host.PacketSender{serverId: serverPackets}, cardsCh,
	)
	server := host.NewServer[reqContent, respContent](
		serverId, echoServerBehaviour{}, serverEvents, serverCommands, serverPackets,
		map[protocol.NodeId]host.PacketSender{clientId: clientPackets},
	)

	// A wired peer is only an edge until a packet reveals its kind; seed
	// each side's graph with the other host so the direct link is a route.
	client.Routes().AddNode(topology.Node{Id: serverId, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppChat)})
	server.Routes().AddNode(topology.Node{Id: clientId, Kind: topology.NewHostKind(protocol.KindClient, protocol.AppChat)})

	require.Equal(t, 1, client.CalculateRoutes())
	require.Equal(t, 1, server.CalculateRoutes())

	go client.Run()
	go server.Run()
	t.Cleanup(func() {
		clientCommands <- host.Crash()
		serverCommands <- host.Crash()
	})

	ok := client.SendRequest(protocol.NewMessage[reqContent](clientId, serverId, 42, reqContent("ping")))
	require.True(t, ok)

	select {
	case resp := <-clientBehaviour.received:
		assert.Equal(t, respContent("pong:ping"), resp.Content)
		assert.Equal(t, serverId, resp.SourceId)
		assert.Equal(t, clientId, resp.DestinationId)
	case <-time.After(2 * time.Second):
		t.Fatal("client never received a response")
	}
}

func TestSendRequestFailsWithoutRoute(t *testing.T) {
	clientPackets := make(chan protocol.Packet, 4)
	clientCommands := make(chan host.Command, 4)
	clientEvents := make(chan host.Event, 4)
	cardsCh := card.NewChannel[host.Client[reqContent, respContent]]()

	clientBehaviour := &echoClientBehaviour{received: make(chan protocol.Message[respContent], 1)}
	client := host.NewClient[reqContent, respContent](
		0, clientBehaviour, clientEvents, clientCommands, clientPackets,
		map[protocol.NodeId]host.PacketSender{}, cardsCh,
	)

	ok := client.SendRequest(protocol.NewMessage[reqContent](0, 9, 1, reqContent("hello")))
	assert.False(t, ok)
}

// TestWaitForResponseNacksMalformedReassembly checks that WaitForResponse's
// fragment path handles a malformed reassembly the same way handleFragment
// does: Nack the sender and forget the session, rather than silently
// dropping it and leaving the session retained forever.
func TestWaitForResponseNacksMalformedReassembly(t *testing.T) {
	const clientId, serverId protocol.NodeId = 0, 1

	clientPackets := make(chan protocol.Packet, 16)
	serverPackets := make(chan protocol.Packet, 16)
	clientCommands := make(chan host.Command, 4)
	clientEvents := make(chan host.Event, 16)
	clientBehaviour := &echoClientBehaviour{received: make(chan protocol.Message[respContent], 1)}
	cardsCh := card.NewChannel[host.Client[reqContent, respContent]]()

	client := host.NewClient[reqContent, respContent](
		clientId, clientBehaviour, clientEvents, clientCommands, clientPackets,
		map[protocol.NodeId]host.PacketSender{serverId: serverPackets}, cardsCh,
	)
	client.Routes().AddNode(topology.Node{Id: serverId, Kind: topology.NewHostKind(protocol.KindServer, protocol.AppChat)})
	require.Equal(t, 1, client.CalculateRoutes())

	header := protocol.RoutingHeader{Hops: []protocol.NodeId{serverId, clientId}, HopIndex: 1}

	var garbage protocol.Fragment
	garbage.Index = 0
	garbage.Total = 1
	garbage.Length = copy(garbage.Data[:], []byte("not json"))
	clientPackets <- protocol.NewFragmentPacket(99, header, garbage)

	good := protocol.NewMessage[respContent](serverId, clientId, 100, respContent("pong"))
	frags, err := fragment.Serialize(100, good)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	clientPackets <- protocol.NewFragmentPacket(100, header, frags[0])

	type result struct {
		msg protocol.Message[respContent]
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := client.WaitForResponse(func(protocol.Message[respContent]) bool { return true })
		done <- result{msg, err}
	}()

	var sawNack bool
	for i := 0; i < 2; i++ {
		select {
		case pkt := <-serverPackets:
			if pkt.Kind == protocol.PayloadNack {
				assert.Equal(t, protocol.NackUnexpectedRecipient, pkt.Nack.Kind)
				assert.Equal(t, uint64(99), pkt.SessionId)
				sawNack = true
			}
		case <-time.After(2 * time.Second):
			t.Fatal("client never forwarded the expected ack/nack packets")
		}
	}
	assert.True(t, sawNack, "malformed reassembly must produce an UnexpectedRecipient nack")

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, respContent("pong"), r.msg.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForResponse never returned the well-formed response")
	}
}

func TestLifecycleTransitionsThroughCrash(t *testing.T) {
	clientPackets := make(chan protocol.Packet, 1)
	clientCommands := make(chan host.Command, 1)
	clientEvents := make(chan host.Event, 1)
	cardsCh := card.NewChannel[host.Client[reqContent, respContent]]()
	clientBehaviour := &echoClientBehaviour{received: make(chan protocol.Message[respContent], 1)}

	client := host.NewClient[reqContent, respContent](
		0, clientBehaviour, clientEvents, clientCommands, clientPackets,
		map[protocol.NodeId]host.PacketSender{}, cardsCh,
	)
	assert.Equal(t, host.Idle, client.State())

	done := make(chan struct{})
	go func() {
		client.Run()
		close(done)
	}()
	clientCommands <- host.Crash()

	select {
	case <-done:
		assert.Equal(t, host.Terminated, client.State())
	case <-time.After(2 * time.Second):
		t.Fatal("client never terminated after Crash")
	}
}
