package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka publisher and consumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Logger  *slog.Logger
}

// SplitBrokers parses a comma separated broker list.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// KafkaPublisher writes domain events to a single topic, keyed by aggregate
// id so events of one aggregate stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a new Kafka publisher.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic not configured")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}

	cfg.Logger.Info("Kafka publisher configured",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
	)

	return &KafkaPublisher{writer: writer, logger: cfg.Logger}, nil
}

// Publish writes the payload with routing key and trace context headers.
func (p *KafkaPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var envelope struct {
		EventID     string `json:"event_id"`
		AggregateID string `json:"aggregate_id"`
	}
	_ = json.Unmarshal(payload, &envelope)

	headers := []kafka.Header{
		{Key: "routing_key", Value: []byte(routingKey)},
		{Key: "event_id", Value: []byte(envelope.EventID)},
	}
	headers = injectKafka(ctx, headers)

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(envelope.AggregateID),
		Value:   payload,
		Headers: headers,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error("failed to publish message",
			"routing_key", routingKey,
			"error", err,
		)
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	p.logger.Debug("message published",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads the event topic as a consumer group member and
// dispatches each message through a ConsumerRegistry.
type KafkaConsumer struct {
	reader   *kafka.Reader
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewKafkaConsumer creates a new Kafka consumer.
func NewKafkaConsumer(cfg KafkaConfig, registry *ConsumerRegistry) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.GroupID == "" {
		cfg.GroupID = DefaultConsumerQueueName
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &KafkaConsumer{reader: reader, registry: registry, logger: cfg.Logger}, nil
}

// RegisterConsumer registers an event consumer. Routing happens on the
// routing_key header since all events share one topic.
func (c *KafkaConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)
}

// Start fetches and dispatches messages until ctx is cancelled. Offsets are
// committed only after a successful dispatch.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("started consuming events", "topic", c.reader.Config().Topic)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch kafka message: %w", err)
		}

		msgCtx := extractKafka(ctx, msg.Headers)
		event, err := DecodeEvent(msg.Value, headerValue(msg.Headers, "routing_key"))
		if err != nil {
			c.logger.Error("failed to unmarshal event",
				"offset", msg.Offset,
				"error", err,
			)
		} else if err := c.registry.Dispatch(msgCtx, event); err != nil {
			c.logger.Error("event dispatch failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit offset", "offset", msg.Offset, "error", err)
		}
	}
}

// Close closes the reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// KafkaReadyCheck dials the first broker.
func KafkaReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
