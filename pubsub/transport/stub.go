package transport

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// NewStubTransport returns an in-memory transport used in tests. It honors topic
// bindings with single-word wildcards ("events.*") and redelivers nacked packages
// with requeue, which is enough to exercise the consumer loop end to end.
func NewStubTransport() *StubTransport {
	return &StubTransport{
		topics:   map[string]struct{}{},
		bindings: map[string][]stubBinding{},
		queues:   map[string]chan IncomingPkg{},
		acked:    map[string]int{},
		nacked:   map[string]int{},
	}
}

type stubBinding struct {
	topic   string
	pattern string
}

type StubTransport struct {
	mu sync.Mutex

	connected   bool
	connectErrs []error

	topics    map[string]struct{}
	bindings  map[string][]stubBinding
	queues    map[string]chan IncomingPkg
	consumers int

	acked  map[string]int
	nacked map[string]int
}

// FailNextConnects makes the following Connect calls return the given errors, one per call
func (s *StubTransport) FailNextConnects(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectErrs = append(s.connectErrs, errs...)
}

// DropConnection simulates a broker loss
func (s *StubTransport) DropConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

func (s *StubTransport) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.connectErrs) > 0 {
		err := s.connectErrs[0]
		s.connectErrs = s.connectErrs[1:]
		return err
	}

	s.connected = true
	return nil
}

func (s *StubTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *StubTransport) CreateTopic(ctx context.Context, topic Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic.Name()] = struct{}{}
	return nil
}

func (s *StubTransport) CreateQueue(ctx context.Context, queue Queue, queueBind ...QueueBind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.queues[queue.Name()]; !exists {
		s.queues[queue.Name()] = make(chan IncomingPkg, 100)
	}

	for _, qb := range queueBind {
		s.bindings[queue.Name()] = append(s.bindings[queue.Name()], stubBinding{topic: qb.DestinationTopic(), pattern: qb.BindingKey()})
	}

	return nil
}

func (s *StubTransport) Send(ctx context.Context, outboundPkg OutboundPkg, options ...SendOpt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return WithPublishErr(errors.New("stub transport is not connected"))
	}

	dest := outboundPkg.Destination()

	for queueName, binds := range s.bindings {
		for _, b := range binds {
			if b.topic != dest.DestinationTopic || !matchBindingKey(b.pattern, dest.RoutingKey) {
				continue
			}

			s.queues[queueName] <- &stubIncomingPkg{
				transport:  s,
				origin:     queueName,
				payload:    outboundPkg.Payload(),
				headers:    outboundPkg.Headers(),
				attributes: outboundPkg.Attributes(),
				receivedAt: time.Now(),
			}
			break
		}
	}

	return nil
}

func (s *StubTransport) Consume(ctx context.Context, queues []Queue, options ...ConsumeOpt) (<-chan IncomingPkg, error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil, errors.New("stub transport is not connected")
	}
	s.mu.Unlock()

	income := make(chan IncomingPkg)

	wg := &sync.WaitGroup{}

	for _, q := range queues {
		s.mu.Lock()
		deliveries, exists := s.queues[q.Name()]
		s.mu.Unlock()

		if !exists {
			return nil, errors.Errorf("queue %s was not declared", q.Name())
		}

		wg.Add(1)

		s.mu.Lock()
		s.consumers++
		s.mu.Unlock()

		go func(deliveries chan IncomingPkg) {
			defer wg.Done()
			defer func() {
				s.mu.Lock()
				s.consumers--
				s.mu.Unlock()
			}()
			for {
				select {
				case pkg := <-deliveries:
					select {
					case income <- pkg:
					case <-ctx.Done():
						// consumer is gone, put the delivery back for the next one
						deliveries <- pkg
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(deliveries)
	}

	go func() {
		wg.Wait()
		close(income)
	}()

	return income, nil
}

func (s *StubTransport) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// Consuming reports whether consumer goroutines are draining the declared queues.
// Tests publishing right after a subscriber starts wait on this, otherwise the
// message can race the queue declaration and get dropped as unroutable.
func (s *StubTransport) Consuming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumers > 0
}

// AckedCount returns how many times the package with the given uid was acked
func (s *StubTransport) AckedCount(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acked[uid]
}

// NackedCount returns how many times the package with the given uid was nacked
func (s *StubTransport) NackedCount(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nacked[uid]
}

func matchBindingKey(pattern, routingKey string) bool {
	patternParts := strings.Split(pattern, ".")
	keyParts := strings.Split(routingKey, ".")

	if len(patternParts) != len(keyParts) {
		return false
	}

	for i := range patternParts {
		if patternParts[i] == "*" {
			continue
		}
		if patternParts[i] != keyParts[i] {
			return false
		}
	}

	return true
}

type stubIncomingPkg struct {
	transport  *StubTransport
	origin     string
	payload    []byte
	headers    map[string]interface{}
	attributes map[string]string
	receivedAt time.Time
}

func (p *stubIncomingPkg) UID() string {
	return p.attributes[AttributeID]
}

func (p *stubIncomingPkg) Origin() string {
	return p.origin
}

func (p *stubIncomingPkg) Payload() []byte {
	return p.payload
}

func (p *stubIncomingPkg) Headers() map[string]interface{} {
	if p.headers == nil {
		p.headers = map[string]interface{}{}
	}
	return p.headers
}

func (p *stubIncomingPkg) Attributes() map[string]string {
	return p.attributes
}

func (p *stubIncomingPkg) Ack(options ...AcknowledgmentOption) error {
	p.transport.mu.Lock()
	defer p.transport.mu.Unlock()
	p.transport.acked[p.UID()]++
	return nil
}

func (p *stubIncomingPkg) Nack(options ...AcknowledgmentOption) error {
	p.transport.mu.Lock()
	p.transport.nacked[p.UID()]++
	queue := p.transport.queues[p.origin]
	p.transport.mu.Unlock()

	opts := map[string]interface{}{}
	for _, o := range options {
		o(opts)
	}

	if requeue, _ := opts["requeue"].(bool); requeue {
		queue <- p
	}

	return nil
}

func (p *stubIncomingPkg) Reject(options ...AcknowledgmentOption) error {
	return p.Nack(options...)
}

func (p *stubIncomingPkg) ReceivedAt() time.Time {
	return p.receivedAt
}

func (p *stubIncomingPkg) PublishedAt() time.Time {
	return p.receivedAt
}
