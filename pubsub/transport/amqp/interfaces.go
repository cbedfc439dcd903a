package amqp

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

//go:generate mockgen --build_flags=--mod=mod -destination mock_test.go -package amqp . AmqpConnection,AmqpChannel

// AmqpConnection abstracts *amqp.Connection for testing
type AmqpConnection interface {
	Channel() (AmqpChannel, error)
	IsClosed() bool
	Close() error
}

// AmqpChannel abstracts *amqp.Channel for testing
type AmqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Cancel(consumer string, noWait bool) error
	Close() error
}

// Dialer opens a broker connection. Tests substitute it to simulate broker loss.
type Dialer func(url string) (AmqpConnection, error)

func defaultDialer(url string) (AmqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	return &connAdapter{conn}, nil
}

type connAdapter struct {
	*amqp.Connection
}

func (c *connAdapter) Channel() (AmqpChannel, error) {
	return c.Connection.Channel()
}
