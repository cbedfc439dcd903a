package amqp

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-seguros/sagabus/log"
	"github.com/go-seguros/sagabus/pubsub/transport"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// defaults match the contract of the consumer: bounded retry, fixed delay
	defaultConnectAttempts = 10
	defaultConnectDelay    = time.Second * 5
)

type Opt func(t *amqpTransport)

// WithConnectAttempts overrides how many times Connect tries before giving up
func WithConnectAttempts(attempts uint) Opt {
	return func(t *amqpTransport) {
		t.connectAttempts = attempts
	}
}

// WithConnectDelay overrides the fixed delay between connection attempts
func WithConnectDelay(delay time.Duration) Opt {
	return func(t *amqpTransport) {
		t.connectDelay = delay
	}
}

// WithDialer substitutes the broker dialer, used in tests
func WithDialer(dialer Dialer) Opt {
	return func(t *amqpTransport) {
		t.dialer = dialer
	}
}

func NewTransport(url string, logger log.Logger, opts ...Opt) transport.Transport {
	t := &amqpTransport{
		url:             url,
		logger:          logger,
		dialer:          defaultDialer,
		connectAttempts: defaultConnectAttempts,
		connectDelay:    defaultConnectDelay,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

type amqpTransport struct {
	url             string
	logger          log.Logger
	dialer          Dialer
	connectAttempts uint
	connectDelay    time.Duration

	connection        AmqpConnection
	publishingChannel AmqpChannel
}

// Connect dials the broker with bounded retry and a fixed delay between attempts.
// After the attempts are exhausted the error is returned to the caller, the process
// itself keeps running.
func (t *amqpTransport) Connect(ctx context.Context) error {
	var lastErr error

	for attempt := uint(1); attempt <= t.connectAttempts; attempt++ {
		t.logger.Logf(log.InfoLevel, "connecting to amqp broker (attempt %d/%d)", attempt, t.connectAttempts)

		conn, err := t.dialer(t.url)
		if err == nil {
			publishingChannel, chErr := conn.Channel()
			if chErr == nil {
				t.connection = conn
				t.publishingChannel = publishingChannel
				t.logger.Log(log.InfoLevel, "successfully connected to amqp broker")
				return nil
			}

			if closeErr := conn.Close(); closeErr != nil {
				t.logger.Logf(log.WarnLevel, "error closing connection without a channel. %s", closeErr)
			}

			err = chErr
		}

		lastErr = err
		t.logger.Logf(log.WarnLevel, "failed to connect to amqp broker (attempt %d/%d). %s", attempt, t.connectAttempts, err)

		if attempt == t.connectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "connecting to amqp broker")
		case <-time.After(t.connectDelay):
		}
	}

	return errors.Wrapf(lastErr, "amqp broker is unreachable after %d attempts", t.connectAttempts)
}

func (t *amqpTransport) IsConnected() bool {
	return t.connection != nil && !t.connection.IsClosed()
}

// CreateTopic declares a topic exchange. Allowed options are: durable, autoDelete, internal, noWait.
func (t *amqpTransport) CreateTopic(ctx context.Context, topic transport.Topic) error {
	if err := t.checkConnection(); err != nil {
		return errors.WithStack(err)
	}

	amqpTopic, topicConv := topic.(amqpTopic)

	if !topicConv {
		return errors.Errorf("supplied topic is not an instance of amqp.amqpTopic")
	}

	if err := t.publishingChannel.ExchangeDeclare(
		amqpTopic.Name(),
		"topic",
		amqpTopic.durable,
		amqpTopic.autoDelete,
		amqpTopic.internal,
		amqpTopic.noWait,
		nil,
	); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (t *amqpTransport) CreateQueue(ctx context.Context, q transport.Queue, qbs ...transport.QueueBind) error {
	if err := t.checkConnection(); err != nil {
		return errors.WithStack(err)
	}

	queue, queueConv := q.(amqpQueue)

	if !queueConv {
		return errors.Errorf("supplied queue is not an instance of amqp.amqpQueue")
	}

	var queueBinds []amqpQueueBind

	for _, item := range qbs {
		queueBind, queueBindConv := item.(amqpQueueBind)

		if !queueBindConv {
			return errors.Errorf("one of supplied QueueBinds is not an instance of amqp.amqpQueueBind")
		}

		queueBinds = append(queueBinds, queueBind)
	}

	if _, err := t.publishingChannel.QueueDeclare(
		queue.Name(),
		queue.durable,
		queue.autoDelete,
		queue.exclusive,
		queue.noWait,
		nil,
	); err != nil {
		return errors.WithStack(err)
	}

	for _, qb := range queueBinds {
		if err := t.publishingChannel.QueueBind(
			queue.Name(),
			qb.BindingKey(),
			qb.DestinationTopic(),
			qb.noWait,
			nil,
		); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// Send publishes a persistent delivery stamped with the package's id, type and
// timestamp attributes. There are no retries here, a failed publish means the
// message was not delivered and the caller decides what to do about it.
func (t *amqpTransport) Send(ctx context.Context, outboundPkg transport.OutboundPkg, options ...transport.SendOpt) error {
	if err := t.checkConnection(); err != nil {
		return transport.WithPublishErr(errors.WithStack(err))
	}

	sendOptions := &sendOptions{}

	for _, opt := range options {
		if err := opt(sendOptions); err != nil {
			return errors.WithStack(err)
		}
	}

	attrs := outboundPkg.Attributes()

	publishing := amqp.Publishing{
		Headers:      amqp.Table(outboundPkg.Headers()),
		ContentType:  outboundPkg.ContentType(),
		Body:         outboundPkg.Payload(),
		DeliveryMode: amqp.Persistent,
		MessageId:    attrs[transport.AttributeID],
		Type:         attrs[transport.AttributeType],
	}

	if ts, err := strconv.ParseInt(attrs[transport.AttributeTimestamp], 10, 64); err == nil {
		publishing.Timestamp = time.Unix(ts, 0)
	}

	if err := t.publishingChannel.Publish(
		outboundPkg.Destination().DestinationTopic,
		outboundPkg.Destination().RoutingKey,
		sendOptions.Mandatory,
		sendOptions.Immediate,
		publishing,
	); err != nil {
		return transport.WithPublishErr(errors.Wrap(err, "publishing outbound pkg"))
	}

	return nil
}

func (t *amqpTransport) Consume(ctx context.Context, queues []transport.Queue, options ...transport.ConsumeOpt) (<-chan transport.IncomingPkg, error) {
	if err := t.checkConnection(); err != nil {
		return nil, errors.WithStack(err)
	}

	consumingChannel, err := t.connection.Channel()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	consumeOptions := &consumeOptions{}

	for _, opt := range options {
		if err := opt(consumeOptions); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if consumeOptions.PrefetchCount > 0 {
		if err := consumingChannel.Qos(int(consumeOptions.PrefetchCount), 0, false); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	income := make(chan transport.IncomingPkg)

	consumersWait := &sync.WaitGroup{}

	consumersCtx, cancelConsumers := context.WithCancel(ctx) //nolint:govet

	for _, q := range queues {
		consumingCh, err := consumingChannel.Consume(
			q.Name(),
			q.Name(),
			false,
			consumeOptions.Exclusive,
			consumeOptions.NoLocal,
			consumeOptions.NoWait,
			nil,
		)

		if err != nil {
			cancelConsumers() // this will shut down all goroutines previously created in this loop
			return nil, errors.Wrapf(err, "consuming %s", q.Name())
		}

		consumersWait.Add(1)

		go func(consumersCtx context.Context, queue transport.Queue, deliveries <-chan amqp.Delivery) {
			defer consumersWait.Done()

			defer func() {
				if err := consumingChannel.Cancel(queue.Name(), true); err != nil {
					t.logger.Logf(log.ErrorLevel, "error canceling consumer %s. %s", queue.Name(), err)
				} else {
					t.logger.Logf(log.InfoLevel, "canceled consumer %s", queue.Name())
				}
			}()

			for {
				select {
				case msg, open := <-deliveries:
					if !open {
						t.logger.Logf(log.WarnLevel, "amqp broker closed delivery channel of queue %s", queue.Name())
						return
					}

					select {
					case income <- &inAmqpPkg{origin: queue.Name(), receivedAt: time.Now(), delivery: msg}:
					case <-consumersCtx.Done():
						// nobody reads income once consumers are canceled, the
						// unacked delivery goes back to the broker on channel close
						t.logger.Logf(log.WarnLevel, "canceled context. Stopped consuming queue %s", queue.Name())
						return
					}
				case <-consumersCtx.Done():
					t.logger.Logf(log.WarnLevel, "canceled context. Stopped consuming queue %s", queue.Name())
					return
				}
			}
		}(consumersCtx, q, consumingCh)
	}

	go func() {
		consumersWait.Wait()
		close(income)

		if err := consumingChannel.Close(); err != nil {
			t.logger.Logf(log.ErrorLevel, "error closing consumer channel. %s", err)
		} else {
			t.logger.Log(log.InfoLevel, "closed consumer channel")
		}
	}()

	return income, nil //nolint:govet
}

func (t *amqpTransport) Disconnect(ctx context.Context) error {
	if t.connection == nil || t.publishingChannel == nil {
		return nil
	}

	if err := t.publishingChannel.Close(); err != nil {
		return errors.Wrap(err, "error closing publishing channel")
	}

	if err := t.connection.Close(); err != nil {
		return errors.Wrap(err, "error closing connection")
	}

	return nil
}

func (t *amqpTransport) checkConnection() error {
	if t.connection == nil {
		return errors.Errorf("connection wasn't established. Use transport.Connect first")
	}

	if t.connection.IsClosed() {
		return errors.Errorf("connection to the broker is closed")
	}

	return nil
}
