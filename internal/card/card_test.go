package card_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/relay/internal/card"
)

type fakeClient struct {
	visited int
}

func TestActivateRunsAgainstClient(t *testing.T) {
	c := card.New("Probe", "touches the client", card.Common, func(cl *fakeClient) {
		cl.visited++
	})
	cl := &fakeClient{}
	c.Activate(cl)
	assert.Equal(t, 1, cl.visited)
}

func TestYieldTurnCardIsNoOp(t *testing.T) {
	c := card.YieldTurnCard[fakeClient]()
	assert.True(t, c.IsYieldTurn())
	assert.False(t, c.IsForgetTopology())

	cl := &fakeClient{}
	c.Activate(cl)
	assert.Equal(t, 0, cl.visited)
}

func TestChannelHandshakeBlocksProducerUntilConsumerAcks(t *testing.T) {
	ch := card.NewChannel[fakeClient]()
	probe := card.New("Probe", "", card.Common, func(cl *fakeClient) { cl.visited++ })

	done := make(chan error, 1)
	go func() {
		done <- ch.Play(context.Background(), probe)
	}()

	cl := &fakeClient{}
	received := <-ch.Recv()
	received.Activate(cl)
	assert.Equal(t, 1, cl.visited)

	select {
	case err := <-done:
		t.Fatalf("Play returned before the handshake ack was consumed: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	<-ch.Recv() // completion handshake

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Play never returned after handshake ack")
	}
}

func TestChannelPlayRespectsContextCancellation(t *testing.T) {
	ch := card.NewChannel[fakeClient]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ch.Play(ctx, card.New("Probe", "", card.Common, func(*fakeClient) {}))
	assert.ErrorIs(t, err, context.Canceled)
}
