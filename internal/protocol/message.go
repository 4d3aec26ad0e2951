package protocol

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var wire = jsoniter.ConfigCompatibleWithStandardLibrary

// Content is the marker interface every request/response payload type
// implements. Request and Response narrow it further purely for
// documentation at call sites; the wire encoding treats them identically.
type Content interface {
	fmt.Stringer
}

type Request interface {
	Content
}

type Response interface {
	Content
}

// envelope is the textual, self-describing wire shape of Message[T]: the
// generic parameter isn't serialized directly, so content travels as a
// raw JSON value and is decoded against the caller-supplied type at the
// deserialize call site.
type envelope struct {
	SourceId      NodeId          `json:"source_id"`
	DestinationId NodeId          `json:"destination_id"`
	SessionId     uint64          `json:"session_id"`
	Content       jsoniter.RawMessage `json:"content"`
}

// Message is the application-level envelope exchanged between a client and
// a server. T is typically a concrete Request or Response type.
type Message[T any] struct {
	SourceId      NodeId
	DestinationId NodeId
	SessionId     uint64
	Content       T
}

// NewMessage builds a Message with the given envelope fields.
func NewMessage[T any](source, destination NodeId, sessionId uint64, content T) Message[T] {
	return Message[T]{
		SourceId:      source,
		DestinationId: destination,
		SessionId:     sessionId,
		Content:       content,
	}
}

// GenerateResponse builds the reply envelope for m: source/destination
// swapped, same session id, caller-supplied response content.
func GenerateResponse[Req, Resp any](m Message[Req], content Resp) Message[Resp] {
	return Message[Resp]{
		SourceId:      m.DestinationId,
		DestinationId: m.SourceId,
		SessionId:     m.SessionId,
		Content:       content,
	}
}

// Serialize produces the canonical UTF-8 wire form of m.
func Serialize[T any](m Message[T]) ([]byte, error) {
	content, err := wire.Marshal(m.Content)
	if err != nil {
		return nil, err
	}
	return wire.Marshal(envelope{
		SourceId:      m.SourceId,
		DestinationId: m.DestinationId,
		SessionId:     m.SessionId,
		Content:       content,
	})
}

// Deserialize parses the UTF-8 wire form produced by Serialize back into a
// Message[T]. It fails with *protocol.FragmentErr when b isn't valid UTF-8
// JSON or doesn't decode into T.
func Deserialize[T any](b []byte) (Message[T], error) {
	var env envelope
	if err := wire.Unmarshal(b, &env); err != nil {
		return Message[T]{}, &FragmentErr{Reason: err.Error()}
	}
	var content T
	if err := wire.Unmarshal(env.Content, &content); err != nil {
		return Message[T]{}, &FragmentErr{Reason: err.Error()}
	}
	return Message[T]{
		SourceId:      env.SourceId,
		DestinationId: env.DestinationId,
		SessionId:     env.SessionId,
		Content:       content,
	}, nil
}

// String renders the message for the event stream (§6 External
// Interfaces: MessageSent/MessageReceived carry a stringified Message).
func (m Message[T]) String() string {
	return fmt.Sprintf("{ source_id: %d, destination_id: %d, session_id: %d, content: %v }",
		m.SourceId, m.DestinationId, m.SessionId, m.Content)
}
