package eventbus

// Event is one message carried on the bus: Topic groups subscribers,
// Key partitions delivery (internal/harness keys by event kind,
// stringified, so every event of a given kind is handled in order by the
// same partition), and Payload is the caller-supplied value handlers
// type-assert back out.
type Event struct {
	Topic   string
	Key     string
	Payload interface{}
}

// Handler processes one Event. A non-nil error is logged but never
// retried — the bus is at-most-once delivery, matching the simulation's
// own no-graceful-drain cancellation model.
type Handler func(event *Event) error
