package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
)

// ProcessorConfig tunes polling, retries and retention.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	RetentionDays    int
}

// DefaultProcessorConfig returns the settings used when none are configured.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		RetentionDays:    7,
	}
}

type outcome string

const (
	outcomePublished outcome = "published"
	outcomeFailed    outcome = "failed"
	outcomeDead      outcome = "dead"
	outcomeDeferred  outcome = "deferred"
)

// Processor relays outbox messages to the broker. Messages of one aggregate
// leave in creation order: once one fails, the later ones of that aggregate
// wait for the next poll.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
	dead      atomic.Uint64

	statsMu         sync.Mutex
	lagSeconds      float64
	lastError       string
	lastErrorAt     *time.Time
	lastProcessedAt *time.Time
	oldestMessageAt *time.Time
}

// ProcessorOption customises a Processor.
type ProcessorOption func(*Processor)

// WithMetrics reports outcomes and lag to m.
func WithMetrics(m observability.Metrics) ProcessorOption {
	return func(p *Processor) {
		if m != nil {
			p.metrics = m
		}
	}
}

// NewProcessor creates a stopped processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls in the background until ctx is done or Stop is called.
// Starting a running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.poll(ctx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop ends polling and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the poll loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Processor) poll(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
		}
	}
}

// ProcessOnce relays one batch of due messages.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}
	p.noteBatch(messages)

	blocked := make(map[uuid.UUID]bool)
	for _, msg := range messages {
		if blocked[msg.AggregateID] {
			p.logger.Debug("outbox message deferred", "id", msg.ID, "aggregate_id", msg.AggregateID)
			continue
		}
		if result := p.relay(ctx, msg); result != outcomePublished {
			blocked[msg.AggregateID] = true
		}
	}
	return nil
}

func (p *Processor) relay(ctx context.Context, msg *Message) outcome {
	err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	if err == nil {
		if markErr := p.repo.MarkPublished(ctx, msg.ID); markErr != nil {
			p.logger.Error("failed to mark outbox message published", "id", msg.ID, "error", markErr)
			return outcomeDeferred
		}
		p.published.Add(1)
		p.count(outcomePublished)
		return outcomePublished
	}

	meta := metadataOf(msg)
	p.logger.Warn("outbox publish failed",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"retry", msg.RetryCount+1,
		"correlation_id", meta.CorrelationID,
		"actor_id", meta.ActorID,
		"error", err,
	)
	p.noteError(err)

	if p.exhausted(msg) {
		if markErr := p.repo.MarkDead(ctx, msg.ID, err.Error()); markErr != nil {
			p.logger.Error("failed to dead-letter outbox message", "id", msg.ID, "error", markErr)
		}
		p.dead.Add(1)
		p.count(outcomeDead)
		return outcomeDead
	}

	next := time.Now().Add(p.backoff(msg.RetryCount + 1))
	if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), next); markErr != nil {
		p.logger.Error("failed to reschedule outbox message", "id", msg.ID, "error", markErr)
	}
	p.failed.Add(1)
	p.count(outcomeFailed)
	return outcomeFailed
}

func (p *Processor) count(o outcome) {
	p.metrics.Counter(observability.MetricOutboxMessages, 1, observability.T("outcome", string(o)))
}

func (p *Processor) exhausted(msg *Message) bool {
	return p.config.MaxRetries <= 0 || msg.RetryCount+1 >= p.config.MaxRetries
}

// backoff doubles from RetryBackoffBase per attempt, capped at RetryBackoffMax.
func (p *Processor) backoff(attempt int) time.Duration {
	base, limit := p.config.RetryBackoffBase, p.config.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if limit <= 0 {
		limit = time.Minute
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d >= limit {
			break
		}
		d *= 2
	}
	return min(d, limit)
}

func metadataOf(msg *Message) domain.EventMetadata {
	var meta domain.EventMetadata
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &meta)
	}
	return meta
}

// Cleanup deletes published messages past the retention period. A
// non-positive RetentionDays keeps everything.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}
	deleted, err := p.repo.DeleteOld(ctx, p.config.RetentionDays)
	if err != nil {
		p.noteError(err)
		return 0, err
	}
	return deleted, nil
}

// Stats is a snapshot of the processor's counters.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// GetStats returns the current counters.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return Stats{
		IsRunning:       running,
		PublishedCount:  p.published.Load(),
		FailedCount:     p.failed.Load(),
		DeadCount:       p.dead.Load(),
		LagSeconds:      p.lagSeconds,
		LastError:       p.lastError,
		LastErrorAt:     p.lastErrorAt,
		LastProcessedAt: p.lastProcessedAt,
		OldestMessageAt: p.oldestMessageAt,
	}
}

func (p *Processor) noteError(err error) {
	now := time.Now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.lastError = err.Error()
	p.lastErrorAt = &now
}

// noteBatch records lag as the age of the oldest due message.
func (p *Processor) noteBatch(messages []*Message) {
	now := time.Now()
	var oldest *time.Time
	for _, msg := range messages {
		if oldest == nil || msg.CreatedAt.Before(*oldest) {
			created := msg.CreatedAt
			oldest = &created
		}
	}
	lag := 0.0
	if oldest != nil {
		lag = now.Sub(*oldest).Seconds()
	}

	p.statsMu.Lock()
	p.lastProcessedAt = &now
	p.oldestMessageAt = oldest
	p.lagSeconds = lag
	p.statsMu.Unlock()

	p.metrics.Gauge(observability.MetricOutboxLag, lag)
}
