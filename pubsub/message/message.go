package message

import (
	"time"

	"github.com/go-seguros/sagabus/runtime/scheme"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// CommandsNamespace routes requests to perform an action
	CommandsNamespace Namespace = "commands"
	// EventsNamespace routes facts that already occurred
	EventsNamespace Namespace = "events"
)

type Namespace string

func ParseNamespace(v string) (Namespace, error) {
	switch v {
	case "commands":
		return CommandsNamespace, nil
	case "events":
		return EventsNamespace, nil
	default:
		return "", errors.Errorf("unknown namespace %s", v)
	}
}

// Metadata travels with every message and is duplicated into transport attributes,
// so consumers can route and dispatch without touching the body.
type Metadata struct {
	UID       string    `json:"id"`
	Kind      string    `json:"type"`
	Namespace Namespace `json:"namespace"`
	Timestamp int64     `json:"timestamp"`
}

// Message is the wire envelope for commands and events. Metadata is immutable once
// the message is constructed.
type Message struct {
	Metadata `json:"metadata"`
	Payload  scheme.Object `json:"payload"`

	// filled by the consumer on delivery, never serialized
	Origin     string    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// NewCommandMessage wraps payload into an envelope routed via the commands namespace.
// Kind must be the tag the payload's type is registered under in the scheme.
func NewCommandMessage(kind string, payload scheme.Object) *Message {
	return newMessage(kind, CommandsNamespace, payload)
}

// NewEventMessage wraps payload into an envelope routed via the events namespace.
func NewEventMessage(kind string, payload scheme.Object) *Message {
	return newMessage(kind, EventsNamespace, payload)
}

func newMessage(kind string, namespace Namespace, payload scheme.Object) *Message {
	return &Message{
		Metadata: Metadata{
			UID:       uuid.New().String(),
			Kind:      kind,
			Namespace: namespace,
			Timestamp: time.Now().Unix(),
		},
		Payload: payload,
	}
}
