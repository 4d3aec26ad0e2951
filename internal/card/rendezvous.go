package card

import "context"

// Channel is the zero-capacity handshake channel between a client's
// card-driving goroutine (the "producer") and its network event loop: the
// producer sends a card, the event loop receives it, runs Activate
// synchronously against its own client state (so no locking is needed
// inside the card action), then the producer sends the same card a second
// time purely as a completion handshake — the unbuffered channel won't
// accept that second send until the event loop is ready to receive it
// again, so the producer blocks until execution has actually finished
// before drawing its next card.
type Channel[T any] struct {
	ch chan Card[T]
}

// NewChannel returns an unbuffered (capacity 0) card channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{ch: make(chan Card[T])}
}

// Play is the producer side of the handshake: send cmd, then send it
// again once the receiver has finished acting on it. Returns early with
// ctx's error if the event loop stops accepting before the handshake
// completes.
func (c *Channel[T]) Play(ctx context.Context, cmd Card[T]) error {
	if err := c.send(ctx, cmd); err != nil {
		return err
	}
	return c.send(ctx, cmd)
}

func (c *Channel[T]) send(ctx context.Context, cmd Card[T]) error {
	select {
	case c.ch <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv is the consumer side: the event loop's select case. Callers that
// read a card off this channel must call Recv a second time (discarding
// the result) after running Activate, completing the handshake before
// continuing their loop.
func (c *Channel[T]) Recv() <-chan Card[T] {
	return c.ch
}

// Close tears down the channel on host crash. Producers must select on
// ctx.Done() rather than rely on a closed-channel send, which panics.
func (c *Channel[T]) Close() {
	close(c.ch)
}
