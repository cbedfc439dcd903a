package subscriber

import (
	"context"

	"github.com/go-seguros/sagabus/log"
	msgDispatcher "github.com/go-seguros/sagabus/pubsub/dispatcher"
	"github.com/go-seguros/sagabus/pubsub/message"
	"github.com/go-seguros/sagabus/pubsub/transport"
	"github.com/pkg/errors"
)

type Processor interface {
	Process(ctx context.Context, inPkg transport.IncomingPkg) error
}

type processor struct {
	logger        log.Logger
	marshaller    message.Marshaller
	msgDispatcher msgDispatcher.Dispatcher
}

func NewMessageProcessor(marshaller message.Marshaller, dispatcher msgDispatcher.Dispatcher, logger log.Logger) Processor {
	return &processor{marshaller: marshaller, msgDispatcher: dispatcher, logger: logger}
}

func (p *processor) Process(ctx context.Context, inPkg transport.IncomingPkg) error {
	msg, err := p.marshaller.Unmarshal(inPkg.Payload())
	if err != nil {
		return errors.Wrapf(err, "unmarshalling package %s", inPkg.UID())
	}

	msg.Origin = inPkg.Origin()
	msg.ReceivedAt = inPkg.ReceivedAt()

	executors := p.msgDispatcher.Match(msg.Payload)

	if len(executors) == 0 {
		// nobody asked for this kind, drop it instead of requeueing forever
		p.logger.Logf(log.WarnLevel, "no executors defined for message %s of kind %s", msg.UID, msg.Kind)
		return nil
	}

	for _, exec := range executors {
		if err := exec(ctx, msg); err != nil {
			return errors.Wrapf(err, "executing message %s of kind %s", msg.UID, msg.Kind)
		}
	}

	return nil
}
