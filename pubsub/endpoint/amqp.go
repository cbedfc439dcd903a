package endpoint

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-seguros/sagabus/pubsub/message"
	"github.com/go-seguros/sagabus/pubsub/transport"
	"github.com/pkg/errors"
)

type AmqpEndpoint struct {
	amqpTransport transport.Transport
	topicName     string
	msgMarshaller message.Marshaller
	name          string
}

// NewAmqpEndpoint creates an endpoint publishing into the given topic exchange.
// The routing key is computed per message as <namespace>.<Kind>.
func NewAmqpEndpoint(name string, amqpTransport transport.Transport, topicName string, msgMarshaller message.Marshaller) Endpoint {
	return &AmqpEndpoint{name: name, amqpTransport: amqpTransport, topicName: topicName, msgMarshaller: msgMarshaller}
}

func (a AmqpEndpoint) Name() string {
	return a.name
}

func (a AmqpEndpoint) Send(ctx context.Context, msg *message.Message, opts ...DeliveryOption) error {
	deliveryOpts := &deliveryOptions{}

	for _, opt := range opts {
		if err := opt(deliveryOpts); err != nil {
			return errors.Wrapf(err, "compiling delivery options for message %s", msg.UID)
		}
	}

	dataToSend, err := a.msgMarshaller.Marshal(msg)

	if err != nil {
		return errors.Wrapf(err, "serializing message %s to json", msg.UID)
	}

	destination := transport.DeliveryDestination{
		DestinationTopic: a.topicName,
		RoutingKey:       fmt.Sprintf("%s.%s", msg.Namespace, msg.Kind),
	}

	attributes := map[string]string{
		transport.AttributeID:        msg.UID,
		transport.AttributeType:      msg.Kind,
		transport.AttributeTimestamp: strconv.FormatInt(msg.Timestamp, 10),
	}

	toSend := transport.NewOutboundPkg(dataToSend, "application/json", destination, map[string]interface{}{}, attributes)

	if deliveryOpts.delay != nil {
		select {
		case <-ctx.Done():
			return errors.Errorf("failed to send message %s. Was waiting for the delay and parent ctx closed.", msg.UID)
		case <-time.After(*deliveryOpts.delay):
		}
	}

	return a.amqpTransport.Send(ctx, toSend)
}
