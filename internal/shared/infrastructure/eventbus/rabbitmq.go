package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange domain events are published to.
	ExchangeName = "slotwise.domain.events"

	// DefaultConsumerQueueName is the durable queue feeding snapshot invalidation.
	DefaultConsumerQueueName = "slotwise.snapshot-invalidation"

	defaultPrefetch = 16
)

// RabbitMQConfig configures the RabbitMQ publisher and consumer.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	// Queue is only used by the consumer.
	Queue string
	// Prefetch bounds unacknowledged deliveries held by the consumer.
	Prefetch int
	Logger   *slog.Logger
}

func (c *RabbitMQConfig) defaults() {
	if c.Exchange == "" {
		c.Exchange = ExchangeName
	}
	if c.Queue == "" {
		c.Queue = DefaultConsumerQueueName
	}
	if c.Prefetch <= 0 {
		c.Prefetch = defaultPrefetch
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// deadLetterExchange receives deliveries the consumer gave up on.
func (c RabbitMQConfig) deadLetterExchange() string {
	return c.Exchange + ".dlx"
}

// amqpSession is one connection with one channel on which the domain event
// exchange and its dead-letter exchange are declared.
type amqpSession struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func openSession(cfg RabbitMQConfig) (*amqpSession, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	s := &amqpSession{conn: conn, channel: ch}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if err := ch.ExchangeDeclare(cfg.deadLetterExchange(), amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.deadLetterExchange(), err)
	}
	return s, nil
}

func (s *amqpSession) close() error {
	var errs []error
	if s.channel != nil {
		if err := s.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RabbitMQPublisher publishes events to the topic exchange in confirm mode:
// Publish returns only after the broker has taken responsibility for the
// message, so the outbox marks it published only then.
type RabbitMQPublisher struct {
	session  *amqpSession
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewRabbitMQPublisher connects and enables publisher confirms.
func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	cfg.defaults()
	session, err := openSession(cfg)
	if err != nil {
		return nil, err
	}
	if err := session.channel.Confirm(false); err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	cfg.Logger.Info("RabbitMQ publisher connected", "exchange", cfg.Exchange)
	return &RabbitMQPublisher{session: session, exchange: cfg.Exchange, logger: cfg.Logger}, nil
}

// Publish sends payload under routingKey and waits for the broker confirm.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    messageID(payload),
		Type:         routingKey,
		Headers:      injectAMQP(ctx),
		Body:         payload,
	}

	p.mu.Lock()
	confirm, err := p.session.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected %s", routingKey)
	}

	p.logger.Debug("event published", "routing_key", routingKey, "message_id", msg.MessageId)
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	if p.session.conn.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.close()
}

// messageID reads the event id from an outbox payload, if there is one.
func messageID(payload []byte) string {
	var envelope struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	return envelope.EventID
}

// RabbitMQConsumer delivers events from a durable queue to the registry.
// A delivery whose handler fails is requeued once; a second failure, or a
// body that cannot be decoded, moves it to the "<queue>.dead" queue.
type RabbitMQConsumer struct {
	session  *amqpSession
	cfg      RabbitMQConfig
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	closed  chan struct{}
}

// NewRabbitMQConsumer connects and declares the queue with its dead-letter queue.
func NewRabbitMQConsumer(cfg RabbitMQConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	cfg.defaults()
	session, err := openSession(cfg)
	if err != nil {
		return nil, err
	}

	ch := session.channel
	deadQueue := cfg.Queue + ".dead"
	if _, err := ch.QueueDeclare(deadQueue, true, false, false, false, nil); err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", deadQueue, err)
	}
	if err := ch.QueueBind(deadQueue, "", cfg.deadLetterExchange(), false, nil); err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to bind queue %s: %w", deadQueue, err)
	}
	args := amqp.Table{"x-dead-letter-exchange": cfg.deadLetterExchange()}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, args); err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", cfg.Queue,
		"exchange", cfg.Exchange,
		"prefetch", cfg.Prefetch,
	)
	return &RabbitMQConsumer{
		session:  session,
		cfg:      cfg,
		registry: registry,
		logger:   cfg.Logger,
		closed:   make(chan struct{}),
	}, nil
}

// RegisterConsumer adds consumer to the registry and binds its patterns to the queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pattern := range consumer.EventTypes() {
		if err := c.session.channel.QueueBind(c.cfg.Queue, pattern, c.cfg.Exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "pattern", pattern, "error", err)
		}
	}
}

// Start consumes until ctx is done or Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.session.channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	deliveries, err := c.session.channel.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.cfg.Queue, err)
	}
	c.logger.Info("consuming events", "queue", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(d, c.handle(ctx, d))
		}
	}
}

// errUndecodable marks a delivery that can never be handled.
var errUndecodable = errors.New("undecodable event")

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) error {
	event, err := DecodeEvent(d.Body, d.RoutingKey)
	if err != nil {
		return fmt.Errorf("%w: %v", errUndecodable, err)
	}

	start := time.Now()
	err = c.registry.Dispatch(extractAMQP(ctx, d.Headers), event)
	c.logger.Debug("event handled",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	return err
}

// settle acknowledges d according to the outcome of handling it.
func (c *RabbitMQConsumer) settle(d amqp.Delivery, err error) {
	var settleErr error
	switch {
	case err == nil:
		settleErr = d.Ack(false)
	case errors.Is(err, errUndecodable) || d.Redelivered:
		c.logger.Error("dead-lettering event", "routing_key", d.RoutingKey, "redelivered", d.Redelivered, "error", err)
		settleErr = d.Reject(false)
	default:
		c.logger.Warn("requeueing event", "routing_key", d.RoutingKey, "error", err)
		settleErr = d.Nack(false, true)
	}
	if settleErr != nil {
		c.logger.Error("failed to settle delivery", "routing_key", d.RoutingKey, "error", settleErr)
	}
}

// Close stops Start and closes the connection. It is safe to call twice.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return nil
	default:
	}
	close(c.closed)
	c.running = false
	return c.session.close()
}
