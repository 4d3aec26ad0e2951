// Package eventbus fans host observability events (MessageSent,
// MessageReceived, FloodInitiated) out to harness-side subscribers —
// a debug UI, a route-table dump, a test assertion — without coupling
// host to any of them. Grounded on the teacher's internal/eventbus,
// generalized from call-center CallID partitioning to overlay NodeId
// partitioning and from raw fnv hashing to a consistent-hash ring so
// adding partitions at runtime wouldn't reshuffle every key.
// internal/harness.Harness forwards every host.Event it receives onto a
// bus built by New, keyed by the event's kind, so every MessageSent (or
// MessageReceived, or FloodInitiated) is handled by the same partition
// goroutine in order.
package eventbus

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/serialx/hashring"
	"github.com/tevino/abool"
	"go.uber.org/atomic"

	"firestige.xyz/relay/internal/log"
)

// Stats reports running totals for observability.
type Stats struct {
	PublishedCount int64
	ProcessedCount int64
	PartitionCount int
	QueuedCount    []int
}

// EventBus dispatches published events to subscribed topic handlers.
type EventBus interface {
	Publish(event *Event) error
	Subscribe(topic string, handler Handler) error
	Close() error
	Stats() Stats
}

type partition struct {
	id      int
	queue   chan *Event
	done    chan struct{}
	handler func(*Event) error
}

// InMemoryEventBus is the default EventBus: a fixed ring of partitions,
// each drained by its own goroutine, with delivery to a partition chosen
// by consistent-hashing the event's Key.
type InMemoryEventBus struct {
	ring       *hashring.HashRing
	partitions []*partition

	mu          sync.RWMutex
	subscribers map[string]Handler

	closed    *abool.AtomicBool
	published atomic.Int64
	processed atomic.Int64
}

// New returns an InMemoryEventBus with partitionCount partitions, each
// buffering up to queueSize pending events.
func New(partitionCount, queueSize int) *InMemoryEventBus {
	labels := make([]string, partitionCount)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}

	bus := &InMemoryEventBus{
		ring:        hashring.New(labels),
		partitions:  make([]*partition, partitionCount),
		subscribers: make(map[string]Handler),
		closed:      abool.New(),
	}
	for i := range bus.partitions {
		p := &partition{id: i, queue: make(chan *Event, queueSize), done: make(chan struct{})}
		bus.partitions[i] = p
		go bus.runPartition(p)
	}
	return bus
}

// Publish routes event to the partition its Key consistently hashes to.
func (b *InMemoryEventBus) Publish(event *Event) error {
	if b.closed.IsSet() {
		return fmt.Errorf("eventbus: closed")
	}
	p := b.partitions[b.partitionIndex(event.Key)]
	select {
	case p.queue <- event:
		b.published.Inc()
		return nil
	default:
		return fmt.Errorf("eventbus: partition %d queue full", p.id)
	}
}

// Subscribe registers handler for topic, replacing any prior handler.
func (b *InMemoryEventBus) Subscribe(topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.IsSet() {
		return fmt.Errorf("eventbus: closed")
	}
	b.subscribers[topic] = handler
	log.GetLogger().WithField("topic", topic).Info("eventbus: subscribed")
	return nil
}

// Close stops every partition goroutine. Safe to call more than once.
func (b *InMemoryEventBus) Close() error {
	if !b.closed.SetToIf(false, true) {
		return nil
	}
	for _, p := range b.partitions {
		close(p.queue)
		<-p.done
	}
	log.GetLogger().Info("eventbus: closed")
	return nil
}

// Stats reports a snapshot of running counters and queue depths.
func (b *InMemoryEventBus) Stats() Stats {
	s := Stats{
		PublishedCount: b.published.Load(),
		ProcessedCount: b.processed.Load(),
		PartitionCount: len(b.partitions),
		QueuedCount:    make([]int, len(b.partitions)),
	}
	for i, p := range b.partitions {
		s.QueuedCount[i] = len(p.queue)
	}
	return s
}

func (b *InMemoryEventBus) partitionIndex(key string) int {
	node, ok := b.ring.GetNode(key)
	if !ok {
		return 0
	}
	idx, err := strconv.Atoi(node)
	if err != nil {
		return 0
	}
	return idx
}

func (b *InMemoryEventBus) dispatch(event *Event) error {
	b.mu.RLock()
	handler, ok := b.subscribers[event.Topic]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	return handler(event)
}

func (b *InMemoryEventBus) runPartition(p *partition) {
	logger := log.GetLogger().WithField("partition", p.id)
	logger.Debug("eventbus: partition started")
	defer func() {
		logger.Debug("eventbus: partition stopped")
		close(p.done)
	}()

	for event := range p.queue {
		if err := b.dispatch(event); err != nil {
			logger.WithError(err).Error("eventbus: handler failed")
			continue
		}
		b.processed.Inc()
	}
}
