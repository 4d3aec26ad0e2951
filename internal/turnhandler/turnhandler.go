// Package turnhandler serializes which client is "playing" at any moment,
// grounded on original_source/src/application/turn_handler.rs. A
// TurnHandler is mutex-guarded, so one value can be shared by several
// goroutines. The harness in this module does not create one, and no
// client or card channel checks CurrentTurn before playing a card.
package turnhandler

import (
	"sync"

	"firestige.xyz/relay/internal/protocol"
)

// TurnHandler round-robins turn ownership across a registered set of
// client node ids.
type TurnHandler struct {
	mu      sync.Mutex
	nodes   []protocol.NodeId
	current int
}

// New returns an empty TurnHandler.
func New() *TurnHandler {
	return &TurnHandler{}
}

// CurrentTurn returns the id of the client currently allowed to play, and
// false if no client is registered.
func (h *TurnHandler) CurrentTurn() (protocol.NodeId, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.nodes) == 0 {
		return 0, false
	}
	return h.nodes[h.current], true
}

// YieldTurn advances ownership to the next registered client.
func (h *TurnHandler) YieldTurn() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.nodes) == 0 {
		return
	}
	h.current = (h.current + 1) % len(h.nodes)
}

// Subscribe registers node into the turn rotation.
func (h *TurnHandler) Subscribe(node protocol.NodeId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nodes = append(h.nodes, node)
}

// Unsubscribe removes node from the turn rotation, e.g. on Crash.
func (h *TurnHandler) Unsubscribe(node protocol.NodeId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.nodes[:0]
	for _, n := range h.nodes {
		if n != node {
			kept = append(kept, n)
		}
	}
	h.nodes = kept
	if h.current >= len(h.nodes) {
		h.current = 0
	}
}
