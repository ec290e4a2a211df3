package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueAdEvents is the Redis list key for ad click and reconcile jobs.
	QueueAdEvents = "worker:ad_events"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeAdClick     JobType = "ad_click"
	JobTypeAdReconcile JobType = "ad_reconcile"
)

// ClickPayload is the payload for out-of-band ad click jobs. ImpressionLogID
// is the externally supplied correlation id for the impression that produced
// the click, when the client has one.
type ClickPayload struct {
	AdID            uuid.UUID  `json:"ad_id"`
	ImpressionLogID *uuid.UUID `json:"impression_log_id,omitempty"`
}

// ReconcilePayload carries authoritative totals from an external ad-serving ledger.
type ReconcilePayload struct {
	AdID                uuid.UUID `json:"ad_id"`
	ExternalImpressions int64     `json:"external_impressions"`
	ExternalClicks      int64     `json:"external_clicks"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueClick enqueues an ad click job.
func (q *Queue) EnqueueClick(ctx context.Context, payload ClickPayload) error {
	if err := q.enqueue(ctx, JobTypeAdClick, payload); err != nil {
		return err
	}
	q.logger.Debug("enqueued click job", zap.String("ad_id", payload.AdID.String()))
	return nil
}

// EnqueueReconcile enqueues a counter reconcile job.
func (q *Queue) EnqueueReconcile(ctx context.Context, payload ReconcilePayload) error {
	if err := q.enqueue(ctx, JobTypeAdReconcile, payload); err != nil {
		return err
	}
	q.logger.Debug("enqueued reconcile job", zap.String("ad_id", payload.AdID.String()))
	return nil
}

func (q *Queue) enqueue(ctx context.Context, jobType JobType, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueAdEvents, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available or ctx is done. Returns job and key (queue name).
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, 0, QueueAdEvents).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, QueueAdEvents, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
