package dispatcher

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-seguros/sagabus/pubsub/message"
	"github.com/go-seguros/sagabus/runtime/scheme"
)

// Executor is a callback invoked for every received message of a subscribed type.
// Return an error only on internal failures: the consumer loop negatively
// acknowledges the delivery and the broker redelivers it, so executors must be
// idempotent. Business failures belong in failure events, not errors.
type Executor func(ctx context.Context, msg *message.Message) error

// Dispatcher is a static registry mapping message types to their executors,
// populated at startup.
type Dispatcher interface {
	Match(obj scheme.Object) []Executor
	SubscribeForCmd(obj scheme.Object, executor Executor) Dispatcher
	SubscribeForEvent(obj scheme.Object, executor Executor) Dispatcher
}

func NewDispatcher() Dispatcher {
	return &dispatcher{
		handlers:  make(map[reflect.Type][]Executor),
		listeners: make(map[reflect.Type][]Executor),
	}
}

type dispatcher struct {
	handlers  map[reflect.Type][]Executor
	listeners map[reflect.Type][]Executor
}

func (d dispatcher) Match(obj scheme.Object) []Executor {
	structType := scheme.GetStructType(obj)

	if handlers, exists := d.handlers[structType]; exists && len(handlers) > 0 {
		return handlers
	}

	return d.listeners[structType]
}

func (d *dispatcher) SubscribeForCmd(obj scheme.Object, executor Executor) Dispatcher {
	structType := scheme.GetStructType(obj)

	if _, subscribedForAnEvent := d.listeners[structType]; subscribedForAnEvent {
		panic(fmt.Sprintf("type %s is already subscribed as an event listener", structType.String()))
	}

	executorPtr := reflect.ValueOf(executor).Pointer()

	for _, handler := range d.handlers[structType] {
		// executors are functions, compare their pointers to dedupe
		if reflect.ValueOf(handler).Pointer() == executorPtr {
			return d
		}
	}

	d.handlers[structType] = append(d.handlers[structType], executor)
	return d
}

func (d *dispatcher) SubscribeForEvent(obj scheme.Object, executor Executor) Dispatcher {
	structType := scheme.GetStructType(obj)

	if _, subscribedForACmd := d.handlers[structType]; subscribedForACmd {
		panic(fmt.Sprintf("type %s is already subscribed as a command handler", structType.String()))
	}

	executorPtr := reflect.ValueOf(executor).Pointer()

	for _, listener := range d.listeners[structType] {
		if reflect.ValueOf(listener).Pointer() == executorPtr {
			return d
		}
	}

	d.listeners[structType] = append(d.listeners[structType], executor)
	return d
}
