package transport

import (
	"context"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/transport/transport.go -package transport . Transport,IncomingPkg

// Transport owns the broker connection. It is not safe for concurrent publishing,
// the consumer loop is the sole owner of the underlying channel.
type Transport interface {
	// Connect establishes the broker connection with bounded retry. Safe to call
	// again after a detected disconnect.
	Connect(ctx context.Context) error
	// IsConnected reports whether the underlying connection is usable
	IsConnected() bool
	CreateTopic(ctx context.Context, topic Topic) error
	CreateQueue(ctx context.Context, queue Queue, queueBind ...QueueBind) error
	Consume(ctx context.Context, queues []Queue, options ...ConsumeOpt) (<-chan IncomingPkg, error)
	Send(ctx context.Context, outboundPkg OutboundPkg, options ...SendOpt) error
	Disconnect(ctx context.Context) error
}

type Topic interface {
	Name() string
}

type Queue interface {
	Name() string
}

type QueueBind interface {
	DestinationTopic() string
	BindingKey() string
}

type ConsumeOpt func(options interface{}) error
type SendOpt func(options interface{}) error

// PublishErr marks a delivery the broker did not accept. Callers must treat the
// message as not delivered.
type PublishErr struct {
	error
}

func WithPublishErr(err error) error {
	return PublishErr{err}
}
