package transport

import (
	"time"
)

// Attribute keys stamped into transport metadata on every outbound package.
const (
	AttributeID        = "id"
	AttributeType      = "type"
	AttributeTimestamp = "timestamp"
)

type IncomingPkg interface {
	UID() string
	Origin() string
	Payload() []byte
	Headers() map[string]interface{}
	// Attributes returns transport metadata: message id, type tag, publish timestamp
	Attributes() map[string]string
	Ack(options ...AcknowledgmentOption) error
	Nack(options ...AcknowledgmentOption) error
	Reject(options ...AcknowledgmentOption) error
	ReceivedAt() time.Time
	PublishedAt() time.Time
}

type OutboundPkg interface {
	Payload() []byte
	ContentType() string
	Headers() map[string]interface{}
	Attributes() map[string]string
	Destination() DeliveryDestination
}

func NewOutboundPkg(payload []byte, contentType string, destination DeliveryDestination, headers map[string]interface{}, attributes map[string]string) OutboundPkg {
	return &outboundPkg{payload: payload, contentType: contentType, destination: destination, headers: headers, attributes: attributes}
}

type outboundPkg struct {
	payload     []byte
	contentType string
	headers     map[string]interface{}
	attributes  map[string]string
	destination DeliveryDestination
}

func (o outboundPkg) Payload() []byte {
	return o.payload
}

func (o outboundPkg) ContentType() string {
	return o.contentType
}

func (o outboundPkg) Headers() map[string]interface{} {
	return o.headers
}

func (o outboundPkg) Attributes() map[string]string {
	return o.attributes
}

func (o outboundPkg) Destination() DeliveryDestination {
	return o.destination
}

// DeliveryDestination is the exchange and routing key a package is published with
type DeliveryDestination struct {
	DestinationTopic string
	RoutingKey       string
}

type AcknowledgmentOption func(options map[string]interface{})
