package endpoint

import (
	"context"
	"time"

	"github.com/go-seguros/sagabus/pubsub/message"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/endpoint/endpoint.go -package endpoint . Endpoint,Publisher

type Endpoint interface {
	// Name is a unique name of the endpoint
	Name() string
	// Send sends a message to specified implementation
	Send(ctx context.Context, msg *message.Message, options ...DeliveryOption) error
}

type deliveryOptions struct {
	delay *time.Duration
}

func WithDelay(delay time.Duration) DeliveryOption {
	return func(o *deliveryOptions) error {
		o.delay = &delay
		return nil
	}
}

type DeliveryOption func(o *deliveryOptions) error
