// Package queue implements a named durable job queue on Redis lists.
//
// Each queue name owns three keys: a pending list, a processing set and a
// dead-letter list. A job lives in exactly one of them. Consumers pop from
// the pending list, mark the raw payload in the processing set before doing
// any work, and remove it only once the job is fully resolved - a crash in
// between leaves the payload in the processing set for startup recovery.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/types"
	"github.com/redis/go-redis/v9"
)

// Queue provides access to the durable job queues in Redis
type Queue struct {
	client *redis.Client
}

// New creates a queue handle on an existing Redis client
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Stats reports the live size of each queue section
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	DeadLetter int64 `json:"dead_letter"`
}

func pendingKey(name types.QueueName) string {
	return fmt.Sprintf("queue:%s", name)
}

func processingKey(name types.QueueName) string {
	return fmt.Sprintf("queue:%s:processing", name)
}

func deadLetterKey(name types.QueueName) string {
	return fmt.Sprintf("queue:%s:dlq", name)
}

// Enqueue appends a job to the tail of the pending list
func (q *Queue) Enqueue(ctx context.Context, name types.QueueName, job *models.Job) error {
	raw, err := job.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}

	if err := q.client.RPush(ctx, pendingKey(name), raw).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s on %s: %w", job.ID, name, err)
	}
	return nil
}

// Dequeue blocks until a job is available at the head of the pending list or
// the timeout elapses. Returns (nil, "", nil) on timeout. The raw payload is
// returned alongside the decoded job because the processing set is keyed by
// the exact bytes that were popped.
func (q *Queue) Dequeue(ctx context.Context, name types.QueueName, timeout time.Duration) (*models.Job, string, error) {
	result, err := q.client.BLPop(ctx, timeout, pendingKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to pop from %s: %w", name, err)
	}

	// BLPOP returns [key, value]
	raw := result[1]
	job, err := models.DecodeJob(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode job from %s: %w", name, err)
	}

	return job, raw, nil
}

// MarkProcessing records a popped payload as in-flight. Must be called
// before the job's handler runs.
func (q *Queue) MarkProcessing(ctx context.Context, name types.QueueName, raw string) error {
	if err := q.client.SAdd(ctx, processingKey(name), raw).Err(); err != nil {
		return fmt.Errorf("failed to mark job processing on %s: %w", name, err)
	}
	return nil
}

// Ack removes a payload from the processing set once the job is resolved
// (success, retry re-enqueue or dead-letter)
func (q *Queue) Ack(ctx context.Context, name types.QueueName, raw string) error {
	if err := q.client.SRem(ctx, processingKey(name), raw).Err(); err != nil {
		return fmt.Errorf("failed to ack job on %s: %w", name, err)
	}
	return nil
}

// MoveToDeadLetter appends the job, augmented with the failure time and
// error, to the queue's dead-letter list and removes the original payload
// from the processing set
func (q *Queue) MoveToDeadLetter(ctx context.Context, name types.QueueName, job *models.Job, raw string, jobErr error) error {
	now := time.Now().UTC()
	job.FailedAt = &now
	if jobErr != nil {
		job.Error = jobErr.Error()
	}

	encoded, err := job.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode dead-letter job %s: %w", job.ID, err)
	}

	pipe := q.client.TxPipeline()
	pipe.RPush(ctx, deadLetterKey(name), encoded)
	pipe.SRem(ctx, processingKey(name), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to dead-letter job %s on %s: %w", job.ID, name, err)
	}
	return nil
}

// RecoverProcessing moves every payload in the processing set back to the
// pending list. Called once on worker startup: anything still marked
// in-flight belonged to a process that died mid-handling.
func (q *Queue) RecoverProcessing(ctx context.Context, name types.QueueName) (int, error) {
	members, err := q.client.SMembers(ctx, processingKey(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list processing set for %s: %w", name, err)
	}

	recovered := 0
	for _, raw := range members {
		pipe := q.client.TxPipeline()
		pipe.SRem(ctx, processingKey(name), raw)
		pipe.RPush(ctx, pendingKey(name), raw)
		if _, err := pipe.Exec(ctx); err != nil {
			return recovered, fmt.Errorf("failed to recover job on %s: %w", name, err)
		}
		recovered++
	}

	return recovered, nil
}

// Stats returns the live pending/processing/dead-letter counts for a queue
func (q *Queue) Stats(ctx context.Context, name types.QueueName) (*Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, pendingKey(name))
	processing := pipe.SCard(ctx, processingKey(name))
	deadLetter := pipe.LLen(ctx, deadLetterKey(name))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read stats for %s: %w", name, err)
	}

	return &Stats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		DeadLetter: deadLetter.Val(),
	}, nil
}

// DeadLetterJobs lists the dead-letter entries for a queue in order.
// Entries are addressed by their position for retry and inspection.
func (q *Queue) DeadLetterJobs(ctx context.Context, name types.QueueName) ([]*models.Job, error) {
	raws, err := q.client.LRange(ctx, deadLetterKey(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list dead-letter jobs for %s: %w", name, err)
	}

	jobs := make([]*models.Job, 0, len(raws))
	for _, raw := range raws {
		job, err := models.DecodeJob(raw)
		if err != nil {
			// Keep the slot addressable even when the payload is corrupt
			job = &models.Job{Error: fmt.Sprintf("undecodable payload: %v", err)}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RetryDeadLetter moves the dead-letter entry at the given index back to the
// pending list. Returns false when the index is out of range.
func (q *Queue) RetryDeadLetter(ctx context.Context, name types.QueueName, index int) (bool, error) {
	raws, err := q.client.LRange(ctx, deadLetterKey(name), 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("failed to list dead-letter jobs for %s: %w", name, err)
	}
	if index < 0 || index >= len(raws) {
		return false, nil
	}

	retried := raws[index]
	remaining := append(append([]string{}, raws[:index]...), raws[index+1:]...)

	// Rebuild the dead-letter list without the retried entry
	pipe := q.client.TxPipeline()
	pipe.RPush(ctx, pendingKey(name), retried)
	pipe.Del(ctx, deadLetterKey(name))
	for _, raw := range remaining {
		pipe.RPush(ctx, deadLetterKey(name), raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to retry dead-letter job on %s: %w", name, err)
	}

	return true, nil
}

// ClearDeadLetter removes every dead-letter entry for a queue and returns
// how many were deleted. This is irreversible.
func (q *Queue) ClearDeadLetter(ctx context.Context, name types.QueueName) (int64, error) {
	count, err := q.client.LLen(ctx, deadLetterKey(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count dead-letter jobs for %s: %w", name, err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := q.client.Del(ctx, deadLetterKey(name)).Err(); err != nil {
		return 0, fmt.Errorf("failed to clear dead-letter list for %s: %w", name, err)
	}
	return count, nil
}
