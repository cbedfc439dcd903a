package endpoint

import (
	"context"

	"github.com/go-seguros/sagabus/log"
	"github.com/go-seguros/sagabus/pubsub/message"
	"github.com/pkg/errors"
)

// Publisher sends an outgoing message to every endpoint its payload type is routed to.
// A failed send means the message was not delivered, there are no retries here.
type Publisher interface {
	Publish(ctx context.Context, msg *message.Message) error
}

func NewPublisher(router Router, logger log.Logger) Publisher {
	return &publisher{router: router, logger: logger}
}

type publisher struct {
	router Router
	logger log.Logger
}

func (p publisher) Publish(ctx context.Context, msg *message.Message) error {
	endpoints := p.router.Route(msg.Payload)

	if len(endpoints) == 0 {
		p.logger.Logf(log.WarnLevel, "no endpoints defined for message %s of kind %s", msg.UID, msg.Kind)
		return nil
	}

	for _, endp := range endpoints {
		if err := endp.Send(ctx, msg); err != nil {
			p.logger.Logf(log.ErrorLevel, "error sending message %s. %s", msg.UID, err)
			return errors.WithStack(err)
		}
	}

	return nil
}
