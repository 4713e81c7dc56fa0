package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessed  = "processed"
	OutboxStatusFailed     = "failed"
	OutboxStatusDeadLetter = "dead_letter"

	// MaxRetryCount is the number of failed publishes before an event is
	// moved to the dead letter state.
	MaxRetryCount = 5

	DefaultStream = "stream:sourcing_triads"
)

var ErrInvalidEvent = errors.New("invalid outbox event")

type OutboxEvent struct {
	ID            uuid.UUID       `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	TargetStream  string          `db:"target_stream"`
	Status        string          `db:"status"`
	RetryCount    int             `db:"retry_count"`
	ErrorMessage  *string         `db:"error_message"`
	CreatedAt     time.Time       `db:"created_at"`
	ProcessedAt   *time.Time      `db:"processed_at"`
	NextRetryAt   *time.Time      `db:"next_retry_at"`
}

type OutboxRepository struct {
	db     *DB
	stream string
}

func NewOutboxRepository(db *DB, stream string) *OutboxRepository {
	if stream == "" {
		stream = DefaultStream
	}
	return &OutboxRepository{db: db, stream: stream}
}

// InsertWithTx writes event inside tx so it commits or rolls back together
// with the state change it describes.
func (r *OutboxRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, event *OutboxEvent) error {
	if event.AggregateType == "" || event.AggregateID == "" || event.EventType == "" {
		return fmt.Errorf("%w: aggregate type, aggregate id and event type are required", ErrInvalidEvent)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = OutboxStatusPending
	}
	if event.TargetStream == "" {
		event.TargetStream = r.stream
	}
	if len(event.Payload) == 0 {
		event.Payload = json.RawMessage(`{}`)
	}

	now := time.Now()
	event.CreatedAt = now
	if event.NextRetryAt == nil {
		event.NextRetryAt = &now
	}

	query := `
		INSERT INTO outbox_event (
			id, aggregate_type, aggregate_id, event_type,
			payload, target_stream, status, retry_count,
			created_at, next_retry_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := tx.Exec(ctx, query,
		event.ID, event.AggregateType, event.AggregateID, event.EventType,
		event.Payload, event.TargetStream, event.Status, event.RetryCount,
		event.CreatedAt, event.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// GetPending returns events that are due for a publish attempt, oldest
// first.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `
		SELECT
			id, aggregate_type, aggregate_id, event_type,
			payload, target_stream, status, retry_count,
			error_message, created_at, processed_at, next_retry_at
		FROM outbox_event
		WHERE status IN ($1, $2)
			AND next_retry_at <= $3
		ORDER BY created_at ASC
		LIMIT $4`

	rows, err := r.db.pool.Query(ctx, query,
		OutboxStatusPending, OutboxStatusFailed, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		event := &OutboxEvent{}
		var id string
		err := rows.Scan(
			&id, &event.AggregateType, &event.AggregateID, &event.EventType,
			&event.Payload, &event.TargetStream, &event.Status, &event.RetryCount,
			&event.ErrorMessage, &event.CreatedAt, &event.ProcessedAt, &event.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if event.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse event id %q: %w", id, err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_event
		SET status = $1, processed_at = $2
		WHERE id = $3`

	result, err := r.db.pool.Exec(ctx, query, OutboxStatusProcessed, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event not found: %s", id)
	}
	return nil
}

// MarkFailed records a failed publish and schedules the next attempt.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, processErr error) error {
	var retryCount int
	err := r.db.pool.QueryRow(ctx,
		"SELECT retry_count FROM outbox_event WHERE id = $1", id).Scan(&retryCount)
	if err != nil {
		return fmt.Errorf("failed to get retry count: %w", err)
	}

	retryCount++
	status := OutboxStatusFailed
	if retryCount >= MaxRetryCount {
		status = OutboxStatusDeadLetter
	}

	query := `
		UPDATE outbox_event
		SET status = $1, retry_count = $2, error_message = $3, next_retry_at = $4
		WHERE id = $5`

	_, err = r.db.pool.Exec(ctx, query,
		status, retryCount, processErr.Error(), nextRetryTime(time.Now(), retryCount), id)
	if err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}
	return nil
}

type OutboxStats struct {
	Pending    int64 `json:"pending"`
	DeadLetter int64 `json:"dead_letter"`
}

func (r *OutboxRepository) Stats(ctx context.Context) (OutboxStats, error) {
	var stats OutboxStats
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status IN ($1, $2)),
			COUNT(*) FILTER (WHERE status = $3)
		FROM outbox_event`

	err := r.db.pool.QueryRow(ctx, query,
		OutboxStatusPending, OutboxStatusFailed, OutboxStatusDeadLetter,
	).Scan(&stats.Pending, &stats.DeadLetter)
	if err != nil {
		return stats, fmt.Errorf("failed to get outbox stats: %w", err)
	}
	return stats, nil
}

// nextRetryTime backs off exponentially from 2s, capped at five minutes.
func nextRetryTime(now time.Time, retryCount int) time.Time {
	backoff := time.Duration(1<<min(retryCount, 9)) * time.Second
	return now.Add(min(backoff, 5*time.Minute))
}
