package message

import (
	"encoding/json"
	"time"

	"github.com/go-seguros/sagabus/runtime/scheme"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/message/marshaller.go -package message . Marshaller

type Marshaller interface {
	Marshal(msg *Message) ([]byte, error)
	// Unmarshal decodes the envelope and fills the payload into the concrete type
	// the kind is registered under, so handlers can type-assert msg.Payload.
	Unmarshal(b []byte) (*Message, error)
}

func NewJSONMarshaller(knownTypes scheme.KnownTypesRegistry) Marshaller {
	return &jsonMarshaller{knownTypes: knownTypes}
}

type jsonMarshaller struct {
	knownTypes scheme.KnownTypesRegistry
}

func (j jsonMarshaller) Marshal(msg *Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "marshalling message %s", msg.UID)
	}

	return b, nil
}

func (j jsonMarshaller) Unmarshal(b []byte) (*Message, error) {
	var decoded Message

	if err := json.Unmarshal(b, &decoded); err != nil {
		return nil, WithDecoderErr(err)
	}

	// decoded.Payload is a map[string]interface{} at this point, fill it into the
	// registered type so handlers can do myType, ok := msg.Payload.(*MyType)
	payload, err := j.knownTypes.NewObject(decoded.Kind)

	if err != nil {
		return nil, WithUnknownKindErr(errors.Wrapf(err, "decoding payload of message %s", decoded.UID))
	}

	decoderConf := mapstructure.DecoderConfig{
		Squash:  true,
		TagName: "json",
		Result:  &payload,
		// encoding/json renders time.Time fields as RFC3339 strings, mapstructure
		// needs a hook to turn them back
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	}

	decoder, err := mapstructure.NewDecoder(&decoderConf)

	if err != nil {
		return nil, WithDecoderErr(errors.WithStack(err))
	}

	if err := decoder.Decode(decoded.Payload); err != nil {
		return nil, WithDecoderErr(errors.Wrapf(err, "decoding message payload into type %s", decoded.Kind))
	}

	decoded.Payload = payload

	return &decoded, nil
}

// DecoderErr marks a malformed body. Such messages are poison, redelivery won't fix them.
type DecoderErr struct {
	error
}

func WithDecoderErr(err error) error {
	return DecoderErr{err}
}

// UnknownKindErr marks a message of a kind this process doesn't know about.
// Consumers ack and drop those instead of requeueing them forever.
type UnknownKindErr struct {
	error
}

func WithUnknownKindErr(err error) error {
	return UnknownKindErr{err}
}
