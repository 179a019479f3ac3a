package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository is a test double for outbox.Repository.
type memoryRepository struct {
	mu           sync.Mutex
	messages     []*outbox.Message
	publishedIDs []int64
	failedIDs    []int64
	deadIDs      []int64
	deleted      int64
	fetchErr     error
}

func (r *memoryRepository) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		msg.ID = int64(len(r.messages) + 1)
		r.messages = append(r.messages, msg)
	}
	return nil
}

func (r *memoryRepository) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}

	var result []*outbox.Message
	now := time.Now()
	for _, msg := range r.messages {
		if msg.PublishedAt != nil || msg.DeadLetteredAt != nil {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *memoryRepository) MarkPublished(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishedIDs = append(r.publishedIDs, id)
	now := time.Now()
	r.messages[id-1].PublishedAt = &now
	return nil
}

func (r *memoryRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedIDs = append(r.failedIDs, id)
	msg := r.messages[id-1]
	msg.RetryCount++
	msg.LastError = &errMsg
	msg.NextRetryAt = &nextRetryAt
	return nil
}

func (r *memoryRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deadIDs = append(r.deadIDs, id)
	now := time.Now()
	r.messages[id-1].DeadLetteredAt = &now
	r.messages[id-1].DeadLetterReason = &reason
	return nil
}

func (r *memoryRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	return r.deleted, nil
}

type recordingPublisher struct {
	mu          sync.Mutex
	keys        []string
	failForKeys map[string]bool
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{failForKeys: make(map[string]bool)}
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failForKeys[routingKey] {
		return errors.New("publish failed")
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

func newMessage(routingKey string) *outbox.Message {
	payload, _ := json.Marshal(map[string]string{"date": "2024-01-15"})
	return &outbox.Message{
		EventID:       uuid.New(),
		AggregateType: "Booking",
		AggregateID:   uuid.New(),
		RoutingKey:    routingKey,
		Payload:       payload,
		CreatedAt:     time.Now().Add(-time.Second),
	}
}

func seed(t *testing.T, repo *memoryRepository, keys ...string) {
	t.Helper()
	var msgs []*outbox.Message
	for _, k := range keys {
		msgs = append(msgs, newMessage(k))
	}
	require.NoError(t, repo.SaveBatch(context.Background(), msgs))
}

func TestProcessor_ProcessOnce(t *testing.T) {
	t.Run("publishes and marks every due message", func(t *testing.T) {
		repo := &memoryRepository{}
		publisher := newRecordingPublisher()
		metrics := observability.NewInMemoryMetrics()
		processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil, outbox.WithMetrics(metrics))
		seed(t, repo, "scheduling.booking.created", "scheduling.absence.recorded")

		require.NoError(t, processor.ProcessOnce(context.Background()))

		assert.Equal(t, 2, publisher.count())
		assert.Equal(t, []int64{1, 2}, repo.publishedIDs)
		stats := processor.GetStats()
		assert.Equal(t, uint64(2), stats.PublishedCount)
		assert.NotNil(t, stats.OldestMessageAt)
		assert.Greater(t, stats.LagSeconds, 0.0)
		assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricOutboxMessages, observability.T("outcome", "published")))
	})

	t.Run("failed publish schedules a retry", func(t *testing.T) {
		repo := &memoryRepository{}
		publisher := newRecordingPublisher()
		publisher.failForKeys["scheduling.booking.created"] = true
		processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)
		seed(t, repo, "scheduling.booking.created", "scheduling.absence.voided")

		require.NoError(t, processor.ProcessOnce(context.Background()))

		assert.Equal(t, []int64{2}, repo.publishedIDs)
		assert.Equal(t, []int64{1}, repo.failedIDs)
		failed := repo.messages[0]
		require.NotNil(t, failed.NextRetryAt)
		assert.True(t, failed.NextRetryAt.After(time.Now()))
		assert.Equal(t, uint64(1), processor.GetStats().FailedCount)

		require.NoError(t, processor.ProcessOnce(context.Background()))
		assert.Equal(t, []int64{1}, repo.failedIDs, "message is not due again before its backoff")
	})

	t.Run("dead letters after max retries", func(t *testing.T) {
		repo := &memoryRepository{}
		publisher := newRecordingPublisher()
		publisher.failForKeys["scheduling.booking.created"] = true
		config := outbox.DefaultProcessorConfig()
		config.MaxRetries = 1
		processor := outbox.NewProcessor(repo, publisher, config, nil)
		seed(t, repo, "scheduling.booking.created")

		require.NoError(t, processor.ProcessOnce(context.Background()))

		assert.Empty(t, repo.failedIDs)
		assert.Equal(t, []int64{1}, repo.deadIDs)
		assert.Equal(t, uint64(1), processor.GetStats().DeadCount)
	})

	t.Run("later messages of a failed aggregate wait", func(t *testing.T) {
		repo := &memoryRepository{}
		publisher := newRecordingPublisher()
		publisher.failForKeys["scheduling.booking.created"] = true
		processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

		created := newMessage("scheduling.booking.created")
		rescheduled := newMessage("scheduling.booking.rescheduled")
		rescheduled.AggregateID = created.AggregateID
		require.NoError(t, repo.SaveBatch(context.Background(), []*outbox.Message{created, rescheduled}))

		require.NoError(t, processor.ProcessOnce(context.Background()))

		assert.Equal(t, []int64{1}, repo.failedIDs)
		assert.Empty(t, repo.publishedIDs, "rescheduled must not overtake created")
		assert.Zero(t, publisher.count())
	})

	t.Run("fetch error is returned and recorded", func(t *testing.T) {
		repo := &memoryRepository{fetchErr: errors.New("db down")}
		processor := outbox.NewProcessor(repo, newRecordingPublisher(), outbox.DefaultProcessorConfig(), nil)

		err := processor.ProcessOnce(context.Background())

		assert.Error(t, err)
		assert.Equal(t, "db down", processor.GetStats().LastError)
	})
}

func TestProcessor_Cleanup(t *testing.T) {
	repo := &memoryRepository{deleted: 4}
	processor := outbox.NewProcessor(repo, newRecordingPublisher(), outbox.DefaultProcessorConfig(), nil)

	deleted, err := processor.Cleanup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	config := outbox.DefaultProcessorConfig()
	config.RetentionDays = 0
	disabled := outbox.NewProcessor(repo, newRecordingPublisher(), config, nil)
	deleted, err = disabled.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newRecordingPublisher()
	config := outbox.ProcessorConfig{
		PollInterval:     5 * time.Millisecond,
		BatchSize:        10,
		MaxRetries:       3,
		RetryBackoffBase: time.Millisecond,
		RetryBackoffMax:  10 * time.Millisecond,
	}
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	require.NoError(t, processor.Start(context.Background()))
	require.NoError(t, processor.Start(context.Background()))
	assert.True(t, processor.IsRunning())
	assert.True(t, processor.GetStats().IsRunning)

	seed(t, repo, "scheduling.booking.status_changed")
	assert.Eventually(t, func() bool { return publisher.count() == 1 }, time.Second, 5*time.Millisecond)

	processor.Stop()
	processor.Stop()
	assert.False(t, processor.IsRunning())
}
