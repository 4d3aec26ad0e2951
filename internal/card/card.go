// Package card implements the client's turn-action mechanism: a named,
// self-describing activation wrapped around a function of the client, plus
// the zero-capacity rendezvous channel a card-driving goroutine and the
// client's own event loop use to hand control back and forth. It is
// grounded on original_source/src/client/card.rs's Card<B>/ActivationFunction
// shape; the rarity-weighted draw pool and the ASCII-art presentation layer
// built on top of it are a game-content concern outside this package.
package card

// Rarity weights how often a card is drawn relative to others in a pool;
// the drawing/weighting itself is a game-content concern left to callers.
type Rarity int

const (
	Common Rarity = iota
	Rare
	Quacking
)

// ProbValue returns the rarity's relative draw weight, rarer cards having
// a lower value.
func (r Rarity) ProbValue() int {
	switch r {
	case Common:
		return 3
	case Rare:
		return 2
	default:
		return 1
	}
}

// Card[T] is a named action executed synchronously against a client of
// type T when its turn comes up.
type Card[T any] struct {
	Title       string
	Description string
	Rarity      Rarity
	Activation  func(*T)
}

// New builds a Card.
func New[T any](title, description string, rarity Rarity, activation func(*T)) Card[T] {
	return Card[T]{Title: title, Description: description, Rarity: rarity, Activation: activation}
}

// IsYieldTurn reports whether this card is the well-known "yield turn" no-op.
func (c Card[T]) IsYieldTurn() bool {
	return c.Title == "Yield Turn"
}

// IsForgetTopology reports whether this card is the well-known
// "forget topology" action.
func (c Card[T]) IsForgetTopology() bool {
	return c.Title == "Forget Topology"
}

// Activate runs the card's action against client.
func (c Card[T]) Activate(client *T) {
	c.Activation(client)
}

// YieldTurnCard returns the card every client pool implicitly carries:
// passing the turn to the next registered client without doing anything
// else.
func YieldTurnCard[T any]() Card[T] {
	return New[T]("Yield Turn", "Yield your turn to the next player", Quacking, func(*T) {})
}
