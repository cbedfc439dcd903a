package amqp

import (
	"strconv"
	"time"

	"github.com/go-seguros/sagabus/pubsub/transport"
	amqp "github.com/rabbitmq/amqp091-go"
)

type inAmqpPkg struct {
	delivery   amqp.Delivery
	receivedAt time.Time
	origin     string
}

func (i inAmqpPkg) UID() string {
	return i.delivery.MessageId
}

func (i inAmqpPkg) Origin() string {
	return i.origin
}

func (i inAmqpPkg) Payload() []byte {
	return i.delivery.Body
}

func (i inAmqpPkg) Headers() map[string]interface{} {
	if i.delivery.Headers == nil {
		i.delivery.Headers = make(amqp.Table)
	}

	return i.delivery.Headers
}

func (i inAmqpPkg) Attributes() map[string]string {
	return map[string]string{
		transport.AttributeID:        i.delivery.MessageId,
		transport.AttributeType:      i.delivery.Type,
		transport.AttributeTimestamp: strconv.FormatInt(i.delivery.Timestamp.Unix(), 10),
	}
}

func (i inAmqpPkg) Ack(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Ack(ackOpts.multiple)
}

func (i inAmqpPkg) Nack(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Nack(ackOpts.multiple, ackOpts.requeue)
}

func (i inAmqpPkg) Reject(options ...transport.AcknowledgmentOption) error {
	ackOpts := collectOpts(options...)

	return i.delivery.Reject(ackOpts.requeue)
}

func (i inAmqpPkg) PublishedAt() time.Time {
	return i.delivery.Timestamp
}

func (i inAmqpPkg) ReceivedAt() time.Time {
	return i.receivedAt
}

// WithRequeue tells the broker to redeliver the package
func WithRequeue() transport.AcknowledgmentOption {
	return func(options map[string]interface{}) {
		options["requeue"] = true
	}
}

func WithMultiple() transport.AcknowledgmentOption {
	return func(options map[string]interface{}) {
		options["multiple"] = true
	}
}

type ackOpts struct {
	requeue  bool
	multiple bool
}

func collectOpts(passedOpts ...transport.AcknowledgmentOption) *ackOpts {
	optsMap := map[string]interface{}{}
	for _, opt := range passedOpts {
		opt(optsMap)
	}

	opts := &ackOpts{}

	if requeueVal, exists := optsMap["requeue"]; exists {
		if requeue, isBool := requeueVal.(bool); isBool {
			opts.requeue = requeue
		}
	}

	if multipleVal, exists := optsMap["multiple"]; exists {
		if multiple, isBool := multipleVal.(bool); isBool {
			opts.multiple = multiple
		}
	}

	return opts
}
