package subscriber

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-seguros/sagabus/log"
	"github.com/go-seguros/sagabus/pubsub/message"
	"github.com/go-seguros/sagabus/pubsub/transport"
	"github.com/go-seguros/sagabus/pubsub/transport/amqp"
	"github.com/pkg/errors"
)

// Subscriber consumes packages from the declared queues and processes them.
type Subscriber interface {
	// Run declares the topology, starts consuming and blocks until ctx is done,
	// an os.Signal arrives or the broker connection can't be restored.
	Run(ctx context.Context, topology Topology) error
	// Stop waits for in-flight packages to finish and disconnects from the transport
	Stop(ctx context.Context) error
}

// Topology is everything the subscriber declares on the broker before consuming.
// It is kept around so the whole setup can be redeclared after a reconnect.
type Topology struct {
	Topic  transport.Topic
	Queues []QueueSetup
}

type QueueSetup struct {
	Queue transport.Queue
	Binds []transport.QueueBind
}

// Config allows to configure subscriber workflow
type Config struct {
	// WorkersCount specifies a number of workers that process packages, also used as consumer prefetch
	WorkersCount uint
	// PackageProcessingMaxTime amount of time for a package to be processed
	PackageProcessingMaxTime time.Duration
	// GracefulShutdownTimeout amount of time for graceful shutdown
	GracefulShutdownTimeout time.Duration
	// ConnectionCheckInterval how often the broker connection is checked while consuming
	ConnectionCheckInterval time.Duration
}

var DefaultConfig = Config{
	WorkersCount:             10,
	PackageProcessingMaxTime: time.Second * 60,
	GracefulShutdownTimeout:  time.Second * 61,
	ConnectionCheckInterval:  time.Second * 5,
}

type subscriberOpts struct {
	config *Config
}

type Opt func(o *subscriberOpts)

func WithConfig(c *Config) Opt {
	return func(o *subscriberOpts) {
		o.config = c
	}
}

// NewSubscriber creates default subscriber implementation
func NewSubscriber(transport transport.Transport, processor Processor, logger log.Logger, opts ...Opt) Subscriber {
	sOpts := &subscriberOpts{}

	for _, o := range opts {
		o(sOpts)
	}

	config := &DefaultConfig

	if sOpts.config != nil {
		config = sOpts.config
	}

	return &subscriber{
		transport: transport,
		logger:    logger,
		processor: processor,
		pool:      newPool(),
		config:    config,
	}
}

type subscriber struct {
	transport transport.Transport
	logger    log.Logger
	processor Processor
	pool      *pool
	config    *Config
}

func (s *subscriber) Run(ctx context.Context, topology Topology) error {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	s.pool.start(s.config.WorkersCount)
	defer s.pool.stop()

	consumeCtx, cancelConsume := context.WithCancel(runCtx)
	defer func() { cancelConsume() }()

	consumedPkgs, err := s.connectAndConsume(consumeCtx, topology)
	if err != nil {
		return err
	}

	s.logger.Logf(log.InfoLevel, "started subscriber, listening to %d queues", len(topology.Queues))

	supervisingTicker := time.NewTicker(s.config.ConnectionCheckInterval)
	defer supervisingTicker.Stop()

	shutdown := func() error {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.GracefulShutdownTimeout)
		defer shutdownCancel()

		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Logf(log.ErrorLevel, "error stopping subscriber gracefully. %s", err)
			return errors.Wrap(err, "stopping subscriber gracefully")
		}
		return nil
	}

	for {
		select {
		case <-runCtx.Done():
			s.logger.Log(log.InfoLevel, "subscriber's context was canceled")
			return shutdown()
		case <-signalChan:
			s.logger.Log(log.InfoLevel, "received kill signal")
			return shutdown()
		case <-supervisingTicker.C:
			if s.transport.IsConnected() {
				continue
			}

			s.logger.Log(log.WarnLevel, "broker connection is down, reconnecting")

			cancelConsume()
			consumeCtx, cancelConsume = context.WithCancel(runCtx)

			if consumedPkgs, err = s.connectAndConsume(consumeCtx, topology); err != nil {
				return err
			}
		case inPkg, open := <-consumedPkgs:
			if !open {
				if runCtx.Err() != nil {
					return shutdown()
				}

				// consuming channel closed underneath us, treat it as a lost connection
				s.logger.Log(log.WarnLevel, "consuming channel was closed, reconnecting")

				cancelConsume()
				consumeCtx, cancelConsume = context.WithCancel(runCtx)

				if consumedPkgs, err = s.connectAndConsume(consumeCtx, topology); err != nil {
					return err
				}

				continue
			}

			pkg := inPkg
			if err := s.pool.dispatch(runCtx, func() { s.processPackage(runCtx, pkg) }); err != nil {
				s.logger.Logf(log.WarnLevel, "package %s wasn't assigned to a worker. %s", pkg.UID(), err)
			}
		}
	}
}

func (s *subscriber) connectAndConsume(ctx context.Context, topology Topology) (<-chan transport.IncomingPkg, error) {
	if !s.transport.IsConnected() {
		if err := s.transport.Connect(ctx); err != nil {
			s.logger.Logf(log.FatalLevel, "broker connection attempts exhausted. %s", err)
			return nil, errors.Wrap(err, "connecting to the broker")
		}
	}

	if err := s.declareTopology(ctx, topology); err != nil {
		return nil, err
	}

	queues := make([]transport.Queue, 0, len(topology.Queues))
	for _, setup := range topology.Queues {
		queues = append(queues, setup.Queue)
	}

	consumedPkgs, err := s.transport.Consume(ctx, queues, amqp.WithQosPrefetchCount(s.config.WorkersCount))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return consumedPkgs, nil
}

func (s *subscriber) declareTopology(ctx context.Context, topology Topology) error {
	if topology.Topic != nil {
		if err := s.transport.CreateTopic(ctx, topology.Topic); err != nil {
			return errors.Wrapf(err, "declaring topic %s", topology.Topic.Name())
		}
	}

	for _, setup := range topology.Queues {
		if err := s.transport.CreateQueue(ctx, setup.Queue, setup.Binds...); err != nil {
			return errors.Wrapf(err, "declaring queue %s", setup.Queue.Name())
		}
	}

	return nil
}

func (s *subscriber) processPackage(ctx context.Context, inPkg transport.IncomingPkg) {
	processorCtx, processorCancel := context.WithTimeout(ctx, s.config.PackageProcessingMaxTime)
	defer processorCancel()

	s.logger.Logf(log.DebugLevel, "started processing package %s", inPkg.UID())

	if err := s.processor.Process(processorCtx, inPkg); err != nil {
		decoderErr := &message.DecoderErr{}
		unknownKindErr := &message.UnknownKindErr{}

		// poison messages can't be fixed by redelivery, drop them
		if errors.As(err, decoderErr) || errors.As(err, unknownKindErr) {
			s.logger.Logf(log.WarnLevel, "dropping package %s. %s", inPkg.UID(), err)

			if err := inPkg.Ack(); err != nil {
				s.logger.Logf(log.ErrorLevel, "error acking package %s. %s", inPkg.UID(), err)
			}

			return
		}

		s.logger.Logf(log.ErrorLevel, "error processing package %s from %s, requeueing. %s", inPkg.UID(), inPkg.Origin(), err)

		if err := inPkg.Nack(amqp.WithRequeue()); err != nil {
			s.logger.Logf(log.ErrorLevel, "error nacking package %s. %s", inPkg.UID(), err)
		}

		return
	}

	if err := inPkg.Ack(); err != nil {
		s.logger.Logf(log.ErrorLevel, "error acking package %s. %s", inPkg.UID(), err)
		return
	}

	s.logger.Logf(log.DebugLevel, "acked package %s", inPkg.UID())
}

func (s *subscriber) Stop(ctx context.Context) error {
	if busy := s.pool.busyWorkers(); busy > 0 {
		s.logger.Logf(log.InfoLevel, "graceful shutdown, waiting for %d tasks in progress", busy)
	}

	waitingTicker := time.NewTicker(time.Second)
	defer waitingTicker.Stop()

	for s.pool.busyWorkers() > 0 {
		select {
		case <-ctx.Done():
			s.logger.Log(log.WarnLevel, "stopped subscriber because of canceled parent ctx")
			return nil
		case <-waitingTicker.C:
			s.logger.Logf(log.InfoLevel, "waiting for workers to finish, tasks in progress: %d", s.pool.busyWorkers())
		}
	}

	s.logger.Log(log.InfoLevel, "all tasks are finished, disconnecting from transport")

	return s.transport.Disconnect(ctx)
}
