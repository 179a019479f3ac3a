package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ConsumerRegistry routes consumed events to the consumers whose binding
// patterns match the routing key. Patterns follow topic exchange rules: words
// are dot separated, "*" matches exactly one word and "#" matches zero or more.
// The same rules apply whether the event arrived over RabbitMQ or Kafka.
type ConsumerRegistry struct {
	mu       sync.RWMutex
	bindings []binding
	logger   *slog.Logger
}

type binding struct {
	pattern  []string
	raw      string
	consumer EventConsumer
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{logger: logger}
}

// Register binds consumer to each of its event types.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pattern := range consumer.EventTypes() {
		r.bindings = append(r.bindings, binding{
			pattern:  strings.Split(pattern, "."),
			raw:      pattern,
			consumer: consumer,
		})
		r.logger.Debug("bound consumer", "pattern", pattern)
	}
}

// GetConsumers returns the consumers bound to routingKey, each at most once,
// in registration order.
func (r *ConsumerRegistry) GetConsumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	words := strings.Split(routingKey, ".")
	var out []EventConsumer
	for _, b := range r.bindings {
		if !matchTopic(b.pattern, words) || containsConsumer(out, b.consumer) {
			continue
		}
		out = append(out, b.consumer)
	}
	return out
}

// EventTypes returns the distinct binding patterns in sorted order.
func (r *ConsumerRegistry) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.bindings))
	types := make([]string, 0, len(r.bindings))
	for _, b := range r.bindings {
		if _, ok := seen[b.raw]; ok {
			continue
		}
		seen[b.raw] = struct{}{}
		types = append(types, b.raw)
	}
	sort.Strings(types)
	return types
}

// Dispatch hands event to every matching consumer. All consumers run and
// their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.GetConsumers(event.RoutingKey)
	if len(consumers) == 0 {
		r.logger.Debug("no consumer bound", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConsumerCount returns the number of distinct registered consumers.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var distinct []EventConsumer
	for _, b := range r.bindings {
		if !containsConsumer(distinct, b.consumer) {
			distinct = append(distinct, b.consumer)
		}
	}
	return len(distinct)
}

// matchTopic reports whether words satisfy pattern.
func matchTopic(pattern, words []string) bool {
	if len(pattern) == 0 {
		return len(words) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(words); i++ {
			if matchTopic(pattern[1:], words[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(words) > 0 && matchTopic(pattern[1:], words[1:])
	default:
		return len(words) > 0 && pattern[0] == words[0] && matchTopic(pattern[1:], words[1:])
	}
}

func containsConsumer(list []EventConsumer, c EventConsumer) bool {
	for _, existing := range list {
		if existing == c {
			return true
		}
	}
	return false
}
