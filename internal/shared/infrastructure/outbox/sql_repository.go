package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
)

const messageColumns = `id, event_id, aggregate_type, aggregate_id, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count,
	last_error, dead_lettered_at, dead_letter_reason`

// SQLRepository implements Repository on any database.Connection.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates an outbox repository for conn.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) q(query string) string {
	return r.conn.Driver().Rebind(query)
}

// SaveBatch stores messages. Inside a unit of work the rows commit with the
// aggregate; otherwise a short transaction is opened for the batch.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if database.TxFromContext(ctx) != nil {
		return r.insertAll(ctx, r.exec(ctx), msgs)
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := r.insertAll(ctx, tx, msgs); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *SQLRepository) insertAll(ctx context.Context, exec database.Executor, msgs []*Message) error {
	query := r.q(`
		INSERT INTO outbox (
			event_id, aggregate_type, aggregate_id, routing_key,
			payload, metadata, created_at, retry_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		RETURNING id`)

	for _, msg := range msgs {
		err := exec.QueryRow(ctx, query,
			msg.EventID,
			msg.AggregateType,
			msg.AggregateID,
			msg.RoutingKey,
			[]byte(msg.Payload),
			[]byte(msg.Metadata),
			msg.CreatedAt.UTC(),
		).Scan(&msg.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetUnpublished returns messages due for publishing, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := r.q(`
		SELECT ` + messageColumns + `
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`)

	rows, err := r.exec(ctx).Query(ctx, query, r.now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanMessage)
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`UPDATE outbox SET published_at = ? WHERE id = ?`), r.now().UTC(), id)
	return err
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	query := r.q(`
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = ?,
			next_retry_at = ?
		WHERE id = ?`)
	_, err := r.exec(ctx).Exec(ctx, query, errMsg, nextRetryAt.UTC(), id)
	return err
}

// MarkDead parks a message that exhausted its retries.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	query := r.q(`
		UPDATE outbox
		SET dead_lettered_at = ?,
			dead_letter_reason = ?,
			retry_count = retry_count + 1
		WHERE id = ?`)
	_, err := r.exec(ctx).Exec(ctx, query, r.now().UTC(), reason, id)
	return err
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := r.now().UTC().AddDate(0, 0, -olderThanDays)
	result, err := r.exec(ctx).Exec(ctx, r.q(`
		DELETE FROM outbox
		WHERE published_at IS NOT NULL
		  AND published_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg      Message
		payload  []byte
		metadata []byte
	)
	err := row.Scan(
		&msg.ID,
		&msg.EventID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.RoutingKey,
		&payload,
		&metadata,
		&msg.CreatedAt,
		&msg.PublishedAt,
		&msg.NextRetryAt,
		&msg.RetryCount,
		&msg.LastError,
		&msg.DeadLetteredAt,
		&msg.DeadLetterReason,
	)
	if err != nil {
		return nil, err
	}
	msg.Payload = payload
	msg.Metadata = metadata
	return &msg, nil
}
